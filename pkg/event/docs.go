package event

// swagger:parameters activity
type _ struct {
	// in: query
	Limit int `json:"limit"`
}

// swagger:response Stream
type _ struct {
	// Server-sent events
	// in: body
	Body string
}
