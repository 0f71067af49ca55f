package rating

import "github.com/gin-gonic/gin"

type authenticationMiddleware interface {
	TokenAuthentication(c *gin.Context)
}

func Routes(r gin.IRouter, authenticator authenticationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticator.TokenAuthentication)
	tokenAuthenticationRouter.PUT("/parties/:id/rating", handler.Rate)
	tokenAuthenticationRouter.DELETE("/parties/:id/rating", handler.Delete)
	tokenAuthenticationRouter.GET("/parties/:id/ratings", handler.Summary)
}
