package group

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
	return &repository{
		db: db,
	}
}

type repository struct {
	db *gorm.DB
}

func (r repository) find(ctx context.Context, name string) (*model.Group, error) {
	var group *model.Group
	err := r.db.
		WithContext(ctx).
		Preload("Users").
		Where("name = ?", name).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("group %q doesn't exist", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %v", err)
	}

	return group, nil
}

func (r repository) findAll(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.
		WithContext(ctx).
		Preload("Users").
		Order("name").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find groups: %v", err)
	}
	return groups, nil
}

func (r repository) findOrCreate(ctx context.Context, name string) (*model.Group, error) {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	var g *model.Group
	err := r.db.
		WithContext(ctx).
		Where(model.Group{Name: name}).
		FirstOrCreate(&g).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find or create group %q: %v", name, err)
	}
	return g, nil
}

func (r repository) addUser(ctx context.Context, group *model.Group, user *model.User) error {
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Model(group).Association("Users").Append([]*model.User{user})
}

func (r repository) removeUser(ctx context.Context, group *model.Group, user *model.User) error {
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Model(group).Association("Users").Delete([]*model.User{user})
}
