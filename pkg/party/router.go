package party

import "github.com/gin-gonic/gin"

type authenticationMiddleware interface {
	TokenAuthentication(c *gin.Context)
}

func Routes(r gin.IRouter, authenticator authenticationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticator.TokenAuthentication)
	tokenAuthenticationRouter.POST("/parties", handler.Create)
	tokenAuthenticationRouter.GET("/parties", handler.FindAll)
	tokenAuthenticationRouter.GET("/parties/map", handler.Map)
	tokenAuthenticationRouter.GET("/parties/:id", handler.FindById)
	tokenAuthenticationRouter.PUT("/parties/:id", handler.Update)
	tokenAuthenticationRouter.DELETE("/parties/:id", handler.Delete)
}
