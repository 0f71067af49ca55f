package admin

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) count(ctx context.Context, value any) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(value).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %T: %v", value, err)
	}
	return count, nil
}

// findLatestComments returns the newest comments that aren't deleted along with their author and
// party.
func (r repository) findLatestComments(ctx context.Context, limit int) ([]LatestComment, error) {
	var comments []LatestComment
	err := r.db.
		WithContext(ctx).
		Table("comments").
		Select("comments.id, comments.created_at, comments.party_id, parties.title AS party_title, parties.slug AS party_slug, comments.user_id, COALESCE(users.display_name, '') AS author_name, comments.parent_id, comments.body").
		Joins("JOIN parties ON parties.id = comments.party_id AND parties.deleted_at IS NULL").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Where("comments.deleted_at IS NULL").
		Order("comments.created_at DESC").
		Order("comments.id DESC").
		Limit(limit).
		Scan(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find latest comments: %v", err)
	}
	return comments, nil
}
