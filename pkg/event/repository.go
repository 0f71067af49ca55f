package event

import (
	"context"
	"fmt"

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

func (r repository) Create(ctx context.Context, event *model.Event) error {
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Create(event).Error
}

// FindLatest returns up to limit events, newest first.
func (r repository) FindLatest(ctx context.Context, limit int) ([]model.Event, error) {
	var events []model.Event
	err := r.db.
		WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %v", err)
	}

	return events, nil
}
