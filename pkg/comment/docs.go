package comment

// swagger:parameters createComment
type _ struct {
	// Party id
	// in: path
	// required: true
	ID uint `json:"id"`

	// Create comment request body parameter
	// in: body
	// required: true
	Body CreateCommentRequest
}

// swagger:parameters updateComment
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`

	// Update comment request body parameter
	// in: body
	// required: true
	Body UpdateCommentRequest
}

// swagger:parameters findComments deleteComment
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`
}
