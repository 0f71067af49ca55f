package admin

import (
	"context"
	"time"

	"github.com/partyhub/partyhub/pkg/model"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCommentLimit = 50
	MaxCommentLimit     = 500
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(repository adminRepository) *service {
	return &service{repository}
}

type adminRepository interface {
	count(ctx context.Context, value any) (int64, error)
	findLatestComments(ctx context.Context, limit int) ([]LatestComment, error)
}

type service struct {
	repository adminRepository
}

// Stats of the whole site
// swagger:model
type Stats struct {
	Users     int64 `json:"users"`
	Parties   int64 `json:"parties"`
	Comments  int64 `json:"comments"`
	Souvenirs int64 `json:"souvenirs"`
	Ratings   int64 `json:"ratings"`
}

// LatestComment is a comment as shown in the moderation panel
// swagger:model
type LatestComment struct {
	ID         uint      `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	PartyID    uint      `json:"partyId"`
	PartyTitle string    `json:"partyTitle"`
	PartySlug  string    `json:"partySlug"`
	UserID     uint      `json:"userId"`
	AuthorName string    `json:"authorName"`
	ParentID   *uint     `json:"parentId,omitempty"`
	Body       string    `json:"body"`
}

// Stats counts the rows of each entity concurrently.
func (s service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	counts := []struct {
		value any
		dst   *int64
	}{
		{&model.User{}, &stats.Users},
		{&model.Party{}, &stats.Parties},
		{&model.Comment{}, &stats.Comments},
		{&model.Souvenir{}, &stats.Souvenirs},
		{&model.Rating{}, &stats.Ratings},
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		g.Go(func() error {
			count, err := s.repository.count(ctx, c.value)
			if err != nil {
				return err
			}
			*c.dst = count
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &stats, nil
}

// LatestComments returns up to limit comments, newest first. The limit is clamped to
// 1..MaxCommentLimit.
func (s service) LatestComments(ctx context.Context, limit int) ([]LatestComment, error) {
	limit = min(max(limit, 1), MaxCommentLimit)

	comments, err := s.repository.findLatestComments(ctx, limit)
	if err != nil {
		return nil, err
	}

	if comments == nil {
		comments = []LatestComment{}
	}
	return comments, nil
}
