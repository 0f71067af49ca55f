package event

import "github.com/gin-gonic/gin"

type authenticationMiddleware interface {
	TokenAuthentication(c *gin.Context)
}

type authorizationMiddleware interface {
	RequireAdministrator(c *gin.Context)
}

func Routes(r gin.IRouter, authenticator authenticationMiddleware, authorizer authorizationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticator.TokenAuthentication)
	tokenAuthenticationRouter.GET("/subscribe", handler.Subscribe)

	administratorRestrictedRouter := tokenAuthenticationRouter.Group("")
	administratorRestrictedRouter.Use(authorizer.RequireAdministrator)
	administratorRestrictedRouter.GET("/events", handler.Activity)
}
