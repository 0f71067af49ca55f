package rating

import (
	"context"
	"errors"
	"fmt"

	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) upsert(ctx context.Context, rating *model.Rating) error {
	ctx = context.WithoutCancel(ctx)

	return r.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "party_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).
		Create(rating).Error
}

func (r repository) delete(ctx context.Context, partyID, userID uint) error {
	ctx = context.WithoutCancel(ctx)

	db := r.db.
		WithContext(ctx).
		Where("party_id = ? AND user_id = ?", partyID, userID).
		Delete(&model.Rating{})
	if db.Error != nil {
		return fmt.Errorf("failed to delete rating: %v", db.Error)
	} else if db.RowsAffected < 1 {
		return errdef.NewNotFound("no rating of party %d by user %d", partyID, userID)
	}

	return nil
}

func (r repository) scores(ctx context.Context, partyID uint) ([]int, error) {
	var scores []int
	err := r.db.
		WithContext(ctx).
		Model(&model.Rating{}).
		Where("party_id = ?", partyID).
		Pluck("score", &scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find scores of party %d: %v", partyID, err)
	}

	return scores, nil
}

func (r repository) find(ctx context.Context, partyID, userID uint) (*model.Rating, error) {
	var rating *model.Rating
	err := r.db.
		WithContext(ctx).
		Where("party_id = ? AND user_id = ?", partyID, userID).
		First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("no rating of party %d by user %d", partyID, userID)
	}
	return rating, err
}
