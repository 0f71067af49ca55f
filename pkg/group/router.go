package group

import "github.com/gin-gonic/gin"

type authenticationMiddleware interface {
	TokenAuthentication(c *gin.Context)
}

type authorizationMiddleware interface {
	RequireAdministrator(c *gin.Context)
}

func Routes(r gin.IRouter, authenticator authenticationMiddleware, authorizer authorizationMiddleware, handler Handler) {
	admin := r.Group("/groups", authenticator.TokenAuthentication, authorizer.RequireAdministrator)
	admin.GET("", handler.FindAll)
	admin.GET("/:group", handler.Find)
	admin.POST("/:group/users/:userId", handler.AddUserToGroup)
	admin.DELETE("/:group/users/:userId", handler.RemoveUserFromGroup)
}
