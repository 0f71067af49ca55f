package geocode

// swagger:parameters geocode
type _ struct {
	// in: query
	// required: true
	City string `json:"city"`
}
