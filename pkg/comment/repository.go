package comment

import (
	"context"
	"errors"
	"fmt"

	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/model"
	"gorm.io/gorm"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func selectAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "display_name", "avatar_key", "created_at")
}

func (r repository) create(ctx context.Context, comment *model.Comment) error {
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Omit("User").Create(comment).Error
}

// findById includes soft deleted comments. Deleted is set accordingly.
func (r repository) findById(ctx context.Context, id uint) (*model.Comment, error) {
	var comment *model.Comment
	err := r.db.
		WithContext(ctx).
		Unscoped().
		Preload("User", selectAuthor).
		First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("comment not found by id: %d", id)
	}
	if err != nil {
		return nil, err
	}

	comment.Deleted = comment.DeletedAt.Valid
	return comment, nil
}

// findByParty returns every comment of the party, deleted ones included, oldest first.
func (r repository) findByParty(ctx context.Context, partyID uint) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.
		WithContext(ctx).
		Unscoped().
		Preload("User", selectAuthor).
		Where("party_id = ?", partyID).
		Order("created_at").
		Order("id").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find comments of party %d: %v", partyID, err)
	}

	for i := range comments {
		comments[i].Deleted = comments[i].DeletedAt.Valid
	}
	return comments, nil
}

func (r repository) updateBody(ctx context.Context, comment *model.Comment) error {
	ctx = context.WithoutCancel(ctx)

	return r.db.
		WithContext(ctx).
		Model(comment).
		Select("body", "updated_at").
		Updates(comment).Error
}

func (r repository) delete(ctx context.Context, id uint) error {
	ctx = context.WithoutCancel(ctx)

	db := r.db.WithContext(ctx).Delete(&model.Comment{}, id)
	if db.Error != nil {
		return db.Error
	}
	if db.RowsAffected < 1 {
		return errdef.NewNotFound("comment not found by id: %d", id)
	}
	return nil
}
