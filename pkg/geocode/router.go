package geocode

import "github.com/gin-gonic/gin"

type authenticationMiddleware interface {
	TokenAuthentication(c *gin.Context)
}

func Routes(r gin.IRouter, authenticator authenticationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticator.TokenAuthentication)
	tokenAuthenticationRouter.GET("/geocode", handler.Lookup)
}
