package group

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/pkg/model"
)

func NewHandler(groupService groupService) Handler {
	return Handler{
		groupService: groupService,
	}
}

// Handler exposes role management. Every route is restricted to administrators.
type Handler struct {
	groupService groupService
}

type groupService interface {
	Find(ctx context.Context, name string) (*model.Group, error)
	FindAll(ctx context.Context) ([]model.Group, error)
	AddUser(ctx context.Context, groupName string, userId uint) error
	RemoveUser(ctx context.Context, groupName string, userId uint) error
}

func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /groups groupFindAll
	//
	// List groups
	//
	// List every group along with its members.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Groups
	//   401: Error
	//   403: Error
	groups, err := h.groupService.FindAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

func (h Handler) Find(c *gin.Context) {
	// swagger:route GET /groups/{group} groupFind
	//
	// Find group
	//
	// Find a group by name along with its members.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Group
	//   401: Error
	//   403: Error
	//   404: Error
	group, err := h.groupService.Find(c.Request.Context(), c.Param("group"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h Handler) AddUserToGroup(c *gin.Context) {
	// swagger:route POST /groups/{group}/users/{userId} addUserToGroup
	//
	// Grant role
	//
	// Make a user member of a group.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201:
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	h.changeMembership(c, h.groupService.AddUser, http.StatusCreated)
}

func (h Handler) RemoveUserFromGroup(c *gin.Context) {
	// swagger:route DELETE /groups/{group}/users/{userId} removeUserFromGroup
	//
	// Revoke role
	//
	// Remove a user from a group. The last administrator can't be removed.
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
	//   409: Error
	h.changeMembership(c, h.groupService.RemoveUser, http.StatusAccepted)
}

func (h Handler) changeMembership(c *gin.Context, change func(ctx context.Context, groupName string, userId uint) error, status int) {
	userId, ok := handler.GetPathParameter(c, "userId")
	if !ok {
		return
	}

	if err := change(c.Request.Context(), c.Param("group"), userId); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(status)
}
