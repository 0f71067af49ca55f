package admin

// swagger:parameters latestComments
type _ struct {
	// in: query
	Limit int `json:"limit"`
}
