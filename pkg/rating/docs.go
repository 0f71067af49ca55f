package rating

// swagger:parameters rateParty
type _ struct {
	// Party id
	// in: path
	// required: true
	ID uint `json:"id"`

	// Rate request body parameter
	// in: body
	// required: true
	Body RateRequest
}

// swagger:parameters deleteRating ratingSummary
type _ struct {
	// Party id
	// in: path
	// required: true
	ID uint `json:"id"`
}
