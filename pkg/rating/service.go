package rating

import (
	"context"

	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/model"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(repository ratingRepository, partyService partyService) *service {
	return &service{
		repository:   repository,
		partyService: partyService,
	}
}

type ratingRepository interface {
	upsert(ctx context.Context, rating *model.Rating) error
	delete(ctx context.Context, partyID, userID uint) error
	scores(ctx context.Context, partyID uint) ([]int, error)
	find(ctx context.Context, partyID, userID uint) (*model.Rating, error)
}

type partyService interface {
	FindById(ctx context.Context, id uint) (*model.Party, error)
}

type service struct {
	repository   ratingRepository
	partyService partyService
}

// Rate sets the score the user gives the party, replacing any previous score.
func (s service) Rate(ctx context.Context, partyID, userID uint, score int) (*model.Rating, error) {
	if score < model.MinScore || score > model.MaxScore {
		return nil, errdef.NewBadRequest("score must be between %d and %d", model.MinScore, model.MaxScore)
	}

	if _, err := s.partyService.FindById(ctx, partyID); err != nil {
		return nil, err
	}

	rating := &model.Rating{PartyID: partyID, UserID: userID, Score: score}
	if err := s.repository.upsert(ctx, rating); err != nil {
		return nil, err
	}

	return rating, nil
}

func (s service) Delete(ctx context.Context, partyID, userID uint) error {
	return s.repository.delete(ctx, partyID, userID)
}

// Summary returns the rating summary of the party including the score given by userID.
func (s service) Summary(ctx context.Context, partyID, userID uint) (*Summary, error) {
	if _, err := s.partyService.FindById(ctx, partyID); err != nil {
		return nil, err
	}

	scores, err := s.repository.scores(ctx, partyID)
	if err != nil {
		return nil, err
	}

	summary := Summarize(scores)

	mine, err := s.repository.find(ctx, partyID, userID)
	if err != nil && !errdef.IsNotFound(err) {
		return nil, err
	}
	if mine != nil {
		summary.Mine = &mine.Score
	}

	return &summary, nil
}
