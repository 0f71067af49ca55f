package souvenir

import "github.com/gin-gonic/gin"

type authenticationMiddleware interface {
	TokenAuthentication(c *gin.Context)
}

func Routes(r gin.IRouter, authenticator authenticationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticator.TokenAuthentication)
	tokenAuthenticationRouter.POST("/parties/:id/souvenirs", handler.Upload)
	tokenAuthenticationRouter.GET("/parties/:id/souvenirs", handler.FindByParty)
	tokenAuthenticationRouter.GET("/parties/:id/souvenirs/archive", handler.Archive)
	tokenAuthenticationRouter.GET("/souvenirs/:id/download", handler.Download)
	tokenAuthenticationRouter.DELETE("/souvenirs/:id", handler.Delete)
}
