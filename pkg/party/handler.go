package party

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/partyhub/partyhub/pkg/rating"
)

func NewHandler(partyService partyService, ratingService ratingService) Handler {
	return Handler{
		partyService:  partyService,
		ratingService: ratingService,
	}
}

type Handler struct {
	partyService  partyService
	ratingService ratingService
}

type partyService interface {
	Create(ctx context.Context, creator *model.User, request CreateParty) (*model.Party, error)
	FindByIdOrSlug(ctx context.Context, identifier string) (*model.Party, error)
	FindAll(ctx context.Context, filter Filter) (*Page, error)
	FindMarkers(ctx context.Context) ([]Marker, error)
	Update(ctx context.Context, user *model.User, id uint, update UpdateParty) (*model.Party, error)
	Delete(ctx context.Context, user *model.User, id uint) error
}

type ratingService interface {
	Summary(ctx context.Context, partyID, userID uint) (*rating.Summary, error)
}

type CreatePartyRequest struct {
	Title       string    `json:"title" binding:"required,notBlank,max=120"`
	Description string    `json:"description" binding:"max=5000"`
	City        string    `json:"city" binding:"required,notBlank,max=100"`
	Address     string    `json:"address" binding:"max=200"`
	StartsAt    time.Time `json:"startsAt" binding:"required"`
}

// Create party
func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /parties createParty
	//
	// Create party
	//
	// Create a party. The city is geocoded if possible so the party can be shown on the map.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Party
	//   400: Error
	//   401: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request CreatePartyRequest
	if err := handler.DataBinder(c, &request); err != nil {
		return
	}

	party, err := h.partyService.Create(c.Request.Context(), user, CreateParty{
		Title:       request.Title,
		Description: request.Description,
		City:        request.City,
		Address:     request.Address,
		StartsAt:    request.StartsAt,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, party)
}

type listQuery struct {
	City    string `form:"city"`
	Query   string `form:"q"`
	Creator uint   `form:"creator"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	Size    int    `form:"size" binding:"omitempty,min=1"`
	Sort    string `form:"sort" binding:"omitempty,oneOf=date created title"`
	Order   string `form:"order" binding:"omitempty,oneOf=asc desc"`
}

// FindAll party
func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /parties findAllParties
	//
	// Find parties
	//
	// Find parties by city, text or creator. Results are paginated, the page size is at most 100.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: PartyPage
	//   400: Error
	//   401: Error
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.Error(errdef.NewBadRequest("invalid query: %v", err))
		return
	}

	page, err := h.partyService.FindAll(c.Request.Context(), Filter{
		City:      query.City,
		Query:     query.Query,
		CreatorID: query.Creator,
		Page:      query.Page,
		Size:      query.Size,
		Sort:      query.Sort,
		Order:     query.Order,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Map party
func (h Handler) Map(c *gin.Context) {
	// swagger:route GET /parties/map partyMap
	//
	// Party map
	//
	// Markers of all parties with known coordinates
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []Marker
	//   401: Error
	markers, err := h.partyService.FindMarkers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, markers)
}

// Details of a party including its ratings
// swagger:model PartyDetails
type Details struct {
	*model.Party
	Rating *rating.Summary `json:"rating"`
}

// FindById party
func (h Handler) FindById(c *gin.Context) {
	// swagger:route GET /parties/{id} findPartyById
	//
	// Find party
	//
	// Find a party by its id or slug
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: PartyDetails
	//   401: Error
	//   404: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	party, err := h.partyService.FindByIdOrSlug(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	summary, err := h.ratingService.Summary(ctx, party.ID, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, Details{Party: party, Rating: summary})
}

type UpdatePartyRequest struct {
	Title       *string    `json:"title" binding:"omitempty,notBlank,max=120"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	City        *string    `json:"city" binding:"omitempty,notBlank,max=100"`
	Address     *string    `json:"address" binding:"omitempty,max=200"`
	StartsAt    *time.Time `json:"startsAt"`
}

// Update party
func (h Handler) Update(c *gin.Context) {
	// swagger:route PUT /parties/{id} updateParty
	//
	// Update party
	//
	// Update a party. Omitted fields are left unchanged. Only the creator or an administrator may update a party.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Party
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

	var request UpdatePartyRequest
	if err := handler.DataBinder(c, &request); err != nil {
		return
	}

	party, err := h.partyService.Update(c.Request.Context(), user, id, UpdateParty{
		Title:       request.Title,
		Description: request.Description,
		City:        request.City,
		Address:     request.Address,
		StartsAt:    request.StartsAt,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, party)
}

// Delete party
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /parties/{id} deleteParty
	//
	// Delete party
	//
	// Delete a party with its comments, ratings and souvenirs. Only the creator or an administrator may delete a party.
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

	if err := h.partyService.Delete(c.Request.Context(), user, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusAccepted)
}
