package group

import "github.com/partyhub/partyhub/pkg/model"

// swagger:parameters groupFind
type _ struct {
	// Name of the group, "administrators" is the only privileged one
	// in: path
	// required: true
	Group string `json:"group"`
}

// swagger:parameters addUserToGroup removeUserFromGroup
type _ struct {
	// Name of the group
	// in: path
	// required: true
	Group string `json:"group"`

	// Id of the user whose membership changes
	// in: path
	// required: true
	UserID uint `json:"userId"`
}

// swagger:response Group
type _ struct {
	// in: body
	Body model.Group
}

// swagger:response Groups
type _ struct {
	// in: body
	Body []model.Group
}
