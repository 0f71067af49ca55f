package group

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/internal/middleware"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroupEngine(service groupService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	h := NewHandler(service)
	r.GET("/groups/:group", h.Find)
	r.POST("/groups/:group/users/:userId", h.AddUserToGroup)
	r.DELETE("/groups/:group/users/:userId", h.RemoveUserFromGroup)
	return r
}

func TestHandler_Find(t *testing.T) {
	repository := &mockGroupRepository{}
	repository.On("find", model.AdministratorGroupName).Return(&model.Group{
		Name:  model.AdministratorGroupName,
		Users: []model.User{{ID: 1, Email: "admin@partyhub.app"}},
	}, nil)
	repository.On("find", "bouncers").Return(nil, errdef.NewNotFound("group %q not found", "bouncers"))
	r := newGroupEngine(NewService(repository, &mockUserService{}))

	t.Run("Found", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, "/groups/administrators", nil)
		require.NoError(t, err)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var group model.Group
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &group))
		assert.Equal(t, model.AdministratorGroupName, group.Name)
		require.Len(t, group.Users, 1)
		assert.Equal(t, uint(1), group.Users[0].ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, "/groups/bouncers", nil)
		require.NoError(t, err)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_AddUserToGroup(t *testing.T) {
	group := &model.Group{Name: model.AdministratorGroupName}
	user := &model.User{ID: 7}
	repository := &mockGroupRepository{}
	repository.On("find", model.AdministratorGroupName).Return(group, nil)
	repository.On("addUser", group, user).Return(nil)
	userService := &mockUserService{}
	userService.On("FindById", uint(7)).Return(user, nil)
	r := newGroupEngine(NewService(repository, userService))

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/groups/administrators/users/7", nil)
	require.NoError(t, err)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	repository.AssertExpectations(t)
}

func TestHandler_RemoveUserFromGroup(t *testing.T) {
	t.Run("LastAdministrator", func(t *testing.T) {
		repository := &mockGroupRepository{}
		repository.On("find", model.AdministratorGroupName).Return(&model.Group{
			Name:  model.AdministratorGroupName,
			Users: []model.User{{ID: 1}},
		}, nil)
		r := newGroupEngine(NewService(repository, &mockUserService{}))

		w := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodDelete, "/groups/administrators/users/1", nil)
		require.NoError(t, err)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("MalformedUserId", func(t *testing.T) {
		r := newGroupEngine(NewService(&mockGroupRepository{}, &mockUserService{}))

		w := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodDelete, "/groups/administrators/users/someone", nil)
		require.NoError(t, err)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
