package admin

import "github.com/gin-gonic/gin"

type authenticationMiddleware interface {
	TokenAuthentication(c *gin.Context)
}

type authorizationMiddleware interface {
	RequireAdministrator(c *gin.Context)
}

func Routes(r gin.IRouter, authenticator authenticationMiddleware, authorizer authorizationMiddleware, handler Handler) {
	administratorRestrictedRouter := r.Group("/admin")
	administratorRestrictedRouter.Use(authenticator.TokenAuthentication)
	administratorRestrictedRouter.Use(authorizer.RequireAdministrator)
	administratorRestrictedRouter.GET("/stats", handler.Stats)
	administratorRestrictedRouter.GET("/comments", handler.LatestComments)
}
