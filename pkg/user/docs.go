package user

import "github.com/partyhub/partyhub/pkg/model"

// swagger:parameters signUp
type _ struct {
	// SignUp request body parameter
	// in: body
	// required: true
	Body SignUpRequest
}

// swagger:parameters signIn
type _ struct {
	// in: body
	// required: false
	Body SignInRequest
}

// swagger:parameters requestPasswordReset
type _ struct {
	// Request password reset request body parameter
	// in: body
	// required: true
	Body RequestPasswordResetRequest
}

// swagger:parameters resetPassword
type _ struct {
	// Reset password request body parameter
	// in: body
	// required: true
	Body ResetPasswordRequest
}

// swagger:parameters refreshToken
type _ struct {
	// Refresh token request body parameter. Note that this is optional and the refresh token can also be supplied using a cookie named "refreshToken"
	// in: body
	// required: false
	Body RefreshTokenRequest
}

// swagger:parameters updateMe
type _ struct {
	// in: body
	// required: true
	Body UpdateMeRequest
}

// swagger:parameters updateAvatar
type _ struct {
	// in: formData
	// required: true
	// swagger:file
	File []byte `json:"file"`
}

// swagger:parameters findUserById deleteUser avatar
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`
}

// swagger:parameters validateEmail
type _ struct {
	// in: path
	// required: true
	Token string `json:"token"`
}

// swagger:response Avatar
type _ struct {
	// in: body
	Body []byte
}

// swagger:response Users
type _ struct {
	// in: body
	_ []*model.User
}
