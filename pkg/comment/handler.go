package comment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/pkg/model"
)

func NewHandler(commentService commentService) Handler {
	return Handler{commentService}
}

type Handler struct {
	commentService commentService
}

type commentService interface {
	Create(ctx context.Context, author *model.User, partyID uint, body string, parentID *uint) (*model.Comment, error)
	FindThreads(ctx context.Context, partyID uint) ([]model.Comment, error)
	Update(ctx context.Context, user *model.User, id uint, body string) (*model.Comment, error)
	Delete(ctx context.Context, user *model.User, id uint) error
}

type CreateCommentRequest struct {
	Body     string `json:"body" binding:"required,notBlank,max=2000"`
	ParentID *uint  `json:"parentId"`
}

// Create comment
func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /parties/{id}/comments createComment
	//
	// Create comment
	//
	// Comment on a party or reply to a comment. A reply to a reply is attached to the root of the thread.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Comment
	//   400: Error
	//   401: Error
	//   404: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	partyID, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	var request CreateCommentRequest
	if err := handler.DataBinder(c, &request); err != nil {
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), user, partyID, request.Body, request.ParentID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// FindThreads comment
func (h Handler) FindThreads(c *gin.Context) {
	// swagger:route GET /parties/{id}/comments findComments
	//
	// Find comments
	//
	// Comment threads of a party, oldest first. Replies are nested under their root comment.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []Comment
	//   400: Error
	//   401: Error
	//   404: Error
	partyID, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	threads, err := h.commentService.FindThreads(c.Request.Context(), partyID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, threads)
}

type UpdateCommentRequest struct {
	Body string `json:"body" binding:"required,notBlank,max=2000"`
}

// Update comment
func (h Handler) Update(c *gin.Context) {
	// swagger:route PUT /comments/{id} updateComment
	//
	// Update comment
	//
	// Edit the body of a comment. Only the author may edit a comment.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Comment
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	var request UpdateCommentRequest
	if err := handler.DataBinder(c, &request); err != nil {
		return
	}

	comment, err := h.commentService.Update(c.Request.Context(), user, id, request.Body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Delete comment
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /comments/{id} deleteComment
	//
	// Delete comment
	//
	// Delete a comment. The author and administrators may delete a comment. Replies are kept.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   202:
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), user, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusAccepted)
}
