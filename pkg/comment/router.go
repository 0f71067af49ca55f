package comment

import "github.com/gin-gonic/gin"

type authenticationMiddleware interface {
	TokenAuthentication(c *gin.Context)
}

func Routes(r gin.IRouter, authenticator authenticationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticator.TokenAuthentication)
	tokenAuthenticationRouter.GET("/parties/:id/comments", handler.FindThreads)
	tokenAuthenticationRouter.POST("/parties/:id/comments", handler.Create)
	tokenAuthenticationRouter.PUT("/comments/:id", handler.Update)
	tokenAuthenticationRouter.DELETE("/comments/:id", handler.Delete)
}
