package souvenir

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

func (r repository) create(ctx context.Context, souvenir *model.Souvenir) error {
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Create(souvenir).Error
}

func (r repository) findById(ctx context.Context, id uint) (*model.Souvenir, error) {
	var souvenir *model.Souvenir
	err := r.db.WithContext(ctx).First(&souvenir, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("souvenir not found by id: %d", id)
	}
	return souvenir, err
}

// findByParty returns the souvenirs of the party newest first. An empty kind matches all kinds.
func (r repository) findByParty(ctx context.Context, partyID uint, kind model.SouvenirKind) ([]model.Souvenir, error) {
	db := r.db.WithContext(ctx).Where("party_id = ?", partyID)
	if kind != "" {
		db = db.Where("kind = ?", kind)
	}

	var souvenirs []model.Souvenir
	err := db.
		Order("created_at DESC").
		Order("id DESC").
		Find(&souvenirs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find souvenirs of party %d: %v", partyID, err)
	}
	return souvenirs, nil
}

func (r repository) delete(ctx context.Context, id uint) error {
	ctx = context.WithoutCancel(ctx)

	db := r.db.WithContext(ctx).Delete(&model.Souvenir{}, id)
	if db.Error != nil {
		return db.Error
	}
	if db.RowsAffected < 1 {
		return errdef.NewNotFound("souvenir not found by id: %d", id)
	}
	return nil
}
