package party

// swagger:parameters createParty
type _ struct {
	// Create party request body parameter
	// in: body
	// required: true
	Body CreatePartyRequest
}

// swagger:parameters updateParty
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`

	// Update party request body parameter
	// in: body
	// required: true
	Body UpdatePartyRequest
}

// swagger:parameters findPartyById
type _ struct {
	// Numeric id or slug
	// in: path
	// required: true
	ID string `json:"id"`
}

// swagger:parameters deleteParty
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`
}

// swagger:parameters findAllParties
type _ struct {
	// in: query
	City string `json:"city"`
	// Case-insensitive substring of title or description
	// in: query
	Q string `json:"q"`
	// in: query
	Creator uint `json:"creator"`
	// in: query
	Page int `json:"page"`
	// in: query
	Size int `json:"size"`
	// in: query
	// enum: date,created,title
	Sort string `json:"sort"`
	// in: query
	// enum: asc,desc
	Order string `json:"order"`
}
