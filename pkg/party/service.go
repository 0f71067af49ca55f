package party

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/geocode"
	"github.com/partyhub/partyhub/pkg/model"
	"golang.org/x/sync/errgroup"
)

const (
	SortDate    = "date"
	SortCreated = "created"
	SortTitle   = "title"
	OrderAsc    = "asc"
	OrderDesc   = "desc"

	DefaultPageSize = 20
	MaxPageSize     = 100

	objectRemovalConcurrency = 8
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(logger *slog.Logger, repository partyRepository, geocoder geocoder, objectRemover objectRemover, publisher publisher) *service {
	return &service{
		logger:        logger,
		repository:    repository,
		geocoder:      geocoder,
		objectRemover: objectRemover,
		publisher:     publisher,
	}
}

type partyRepository interface {
	create(ctx context.Context, party *model.Party) error
	save(ctx context.Context, party *model.Party) error
	slugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	findById(ctx context.Context, id uint) (*model.Party, error)
	findBySlug(ctx context.Context, slug string) (*model.Party, error)
	findAll(ctx context.Context, filter Filter) ([]model.Party, int64, error)
	findWithCoordinates(ctx context.Context) ([]model.Party, error)
	delete(ctx context.Context, id uint) ([]string, error)
}

type geocoder interface {
	Lookup(ctx context.Context, city string) (*geocode.Coordinates, error)
}

type objectRemover interface {
	Delete(ctx context.Context, key string) error
}

type publisher interface {
	Publish(ctx context.Context, kind string, userID, partyID uint, payload any)
}

type service struct {
	logger        *slog.Logger
	repository    partyRepository
	geocoder      geocoder
	objectRemover objectRemover
	publisher     publisher
}

type CreateParty struct {
	Title       string
	Description string
	City        string
	Address     string
	StartsAt    time.Time
}

func (s service) Create(ctx context.Context, creator *model.User, request CreateParty) (*model.Party, error) {
	party := &model.Party{
		Title:       strings.TrimSpace(request.Title),
		Description: strings.TrimSpace(request.Description),
		City:        strings.TrimSpace(request.City),
		Address:     strings.TrimSpace(request.Address),
		StartsAt:    request.StartsAt.UTC(),
		CreatorID:   creator.ID,
	}

	s.locate(ctx, party)

	base := baseSlug(party.Title)
	exists, err := s.repository.slugExists(ctx, base, 0)
	if err != nil {
		return nil, err
	}

	if !exists {
		party.Slug = base
		err = s.repository.create(ctx, party)
		if err == nil {
			s.publishCreated(ctx, party)
			return party, nil
		}
		if !errdef.IsDuplicated(err) {
			return nil, err
		}
	}

	// The slug is taken so a temporary one is used until the id is known.
	party.ID = 0
	party.Slug = fmt.Sprintf("%s-%d", base, time.Now().UnixNano())
	if err := s.repository.create(ctx, party); err != nil {
		return nil, err
	}

	party.Slug = fmt.Sprintf("%s-%d", base, party.ID)
	if err := s.repository.save(ctx, party); err != nil {
		return nil, err
	}

	s.publishCreated(ctx, party)
	return party, nil
}

func (s service) publishCreated(ctx context.Context, party *model.Party) {
	s.publisher.Publish(ctx, model.EventPartyCreated, party.CreatorID, party.ID, map[string]any{
		"title": party.Title,
		"slug":  party.Slug,
		"city":  party.City,
	})
}

func baseSlug(title string) string {
	s := slug.Make(title)
	if s == "" {
		return "party"
	}
	return s
}

// locate sets the coordinates of the party city. Geocoding is best effort, a failed lookup leaves
// the party without coordinates.
func (s service) locate(ctx context.Context, party *model.Party) {
	party.Latitude, party.Longitude = nil, nil
	if party.City == "" {
		return
	}

	coordinates, err := s.geocoder.Lookup(ctx, party.City)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to geocode city", "city", party.City, "error", err)
		return
	}

	party.Latitude = &coordinates.Latitude
	party.Longitude = &coordinates.Longitude
}

func (s service) FindById(ctx context.Context, id uint) (*model.Party, error) {
	return s.repository.findById(ctx, id)
}

// FindByIdOrSlug treats a numeric identifier as id and anything else as slug.
func (s service) FindByIdOrSlug(ctx context.Context, identifier string) (*model.Party, error) {
	if id, err := strconv.ParseUint(identifier, 10, 32); err == nil {
		return s.repository.findById(ctx, uint(id))
	}
	return s.repository.findBySlug(ctx, identifier)
}

type Filter struct {
	City      string
	Query     string
	CreatorID uint
	Page      int
	Size      int
	Sort      string
	Order     string
}

// normalize applies defaults and bounds to the paging and sorting options.
func (f Filter) normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 {
		f.Size = DefaultPageSize
	}
	f.Size = min(f.Size, MaxPageSize)
	if _, ok := sortColumns[f.Sort]; !ok {
		f.Sort = SortDate
	}
	if f.Order != OrderAsc {
		f.Order = OrderDesc
	}
	f.Query = strings.TrimSpace(f.Query)
	return f
}

// Page of parties
// swagger:model PartyPage
type Page struct {
	Items []model.Party `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
}

func (s service) FindAll(ctx context.Context, filter Filter) (*Page, error) {
	filter = filter.normalize()

	parties, total, err := s.repository.findAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	if parties == nil {
		parties = []model.Party{}
	}

	return &Page{
		Items: parties,
		Total: total,
		Page:  filter.Page,
		Size:  filter.Size,
	}, nil
}

// Marker is a party on the map
// swagger:model
type Marker struct {
	ID        uint      `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	City      string    `json:"city"`
	StartsAt  time.Time `json:"startsAt"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

func (s service) FindMarkers(ctx context.Context) ([]Marker, error) {
	parties, err := s.repository.findWithCoordinates(ctx)
	if err != nil {
		return nil, err
	}

	markers := make([]Marker, 0, len(parties))
	for _, party := range parties {
		if !party.HasCoordinates() {
			continue
		}
		markers = append(markers, Marker{
			ID:        party.ID,
			Slug:      party.Slug,
			Title:     party.Title,
			City:      party.City,
			StartsAt:  party.StartsAt,
			Latitude:  *party.Latitude,
			Longitude: *party.Longitude,
		})
	}

	return markers, nil
}

type UpdateParty struct {
	Title       *string
	Description *string
	City        *string
	Address     *string
	StartsAt    *time.Time
}

// Update applies the given changes. Only the creator and administrators may update a party.
func (s service) Update(ctx context.Context, user *model.User, id uint, update UpdateParty) (*model.Party, error) {
	party, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}

	if !user.CanModify(party.CreatorID) {
		return nil, errdef.NewForbidden("only the creator or an administrator may update party %d", id)
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title != party.Title {
			party.Title = title
			party.Slug, err = s.uniqueSlug(ctx, baseSlug(title), party.ID)
			if err != nil {
				return nil, err
			}
		}
	}

	if update.Description != nil {
		party.Description = strings.TrimSpace(*update.Description)
	}

	if update.Address != nil {
		party.Address = strings.TrimSpace(*update.Address)
	}

	if update.StartsAt != nil {
		party.StartsAt = update.StartsAt.UTC()
	}

	if update.City != nil {
		city := strings.TrimSpace(*update.City)
		if geocode.Normalize(city) != geocode.Normalize(party.City) {
			party.City = city
			s.locate(ctx, party)
		} else {
			party.City = city
		}
	}

	if err := s.repository.save(ctx, party); err != nil {
		return nil, err
	}

	return party, nil
}

func (s service) uniqueSlug(ctx context.Context, base string, id uint) (string, error) {
	exists, err := s.repository.slugExists(ctx, base, id)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, id), nil
}

// Delete removes the party with everything attached to it. Stored souvenir objects are removed
// concurrently after the rows are gone, failures are logged.
func (s service) Delete(ctx context.Context, user *model.User, id uint) error {
	party, err := s.repository.findById(ctx, id)
	if err != nil {
		return err
	}

	if !user.CanModify(party.CreatorID) {
		return errdef.NewForbidden("only the creator or an administrator may delete party %d", id)
	}

	keys, err := s.repository.delete(ctx, id)
	if err != nil {
		return err
	}

	s.removeObjects(context.WithoutCancel(ctx), keys)

	s.publisher.Publish(ctx, model.EventPartyDeleted, user.ID, party.ID, map[string]any{
		"title":     party.Title,
		"souvenirs": len(keys),
	})

	return nil
}

func (s service) removeObjects(ctx context.Context, keys []string) {
	var g errgroup.Group
	g.SetLimit(objectRemovalConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := s.objectRemover.Delete(ctx, key); err != nil {
				s.logger.ErrorContext(ctx, "Failed to remove souvenir object", "key", key, "error", err)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Not all souvenir objects were removed", "error", err)
	}
}
