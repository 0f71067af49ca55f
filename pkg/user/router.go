package user

import "github.com/gin-gonic/gin"

type authenticationMiddleware interface {
	BasicAuthentication(c *gin.Context)
	TokenAuthentication(c *gin.Context)
}

type authorizationMiddleware interface {
	RequireAdministrator(c *gin.Context)
}

func Routes(r gin.IRouter, authenticator authenticationMiddleware, authorizer authorizationMiddleware, handler Handler) {
	r.POST("/users", handler.SignUp)
	r.POST("/users/validate/:token", handler.ValidateEmail)
	r.POST("/users/request-reset", handler.RequestPasswordReset)
	r.POST("/users/reset-password", handler.ResetPassword)
	r.POST("/refresh", handler.RefreshToken)
	r.GET("/users/:id/avatar", handler.Avatar)

	basicAuthenticationRouter := r.Group("")
	basicAuthenticationRouter.Use(authenticator.BasicAuthentication)
	basicAuthenticationRouter.POST("/tokens", handler.SignIn)

	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticator.TokenAuthentication)
	tokenAuthenticationRouter.GET("/me", handler.Me)
	tokenAuthenticationRouter.PUT("/me", handler.UpdateMe)
	tokenAuthenticationRouter.PUT("/me/avatar", handler.UpdateAvatar)
	tokenAuthenticationRouter.DELETE("/users", handler.SignOut)
	tokenAuthenticationRouter.GET("/users/:id", handler.FindById)

	administratorRestrictedRouter := tokenAuthenticationRouter.Group("")
	administratorRestrictedRouter.Use(authorizer.RequireAdministrator)
	administratorRestrictedRouter.GET("/users", handler.FindAll)
	administratorRestrictedRouter.DELETE("/users/:id", handler.Delete)
}
