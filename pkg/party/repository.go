package party

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

var sortColumns = map[string]string{
	SortDate:    "starts_at",
	SortCreated: "created_at",
	SortTitle:   "title",
}

func selectCreator(db *gorm.DB) *gorm.DB {
	return db.Select("id", "display_name", "avatar_key", "created_at")
}

func (r repository) create(ctx context.Context, party *model.Party) error {
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Create(party).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("party with slug %q already exists", party.Slug)
	}
	return err
}

func (r repository) save(ctx context.Context, party *model.Party) error {
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Omit("Creator").Save(party).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("party with slug %q already exists", party.Slug)
	}
	return err
}

func (r repository) slugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.
		WithContext(ctx).
		Unscoped().
		Model(&model.Party{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r repository) findById(ctx context.Context, id uint) (*model.Party, error) {
	var party *model.Party
	err := r.db.
		WithContext(ctx).
		Preload("Creator", selectCreator).
		First(&party, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("party not found by id: %d", id)
	}
	return party, err
}

func (r repository) findBySlug(ctx context.Context, slug string) (*model.Party, error) {
	var party *model.Party
	err := r.db.
		WithContext(ctx).
		Preload("Creator", selectCreator).
		Where("slug = ?", slug).
		First(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("party not found by slug: %q", slug)
	}
	return party, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r repository) findAll(ctx context.Context, filter Filter) ([]model.Party, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Party{})

	if filter.City != "" {
		db = db.Where("LOWER(city) = LOWER(?)", strings.TrimSpace(filter.City))
	}

	if filter.Query != "" {
		like := "%" + escapeLike(strings.ToLower(filter.Query)) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	if filter.CreatorID != 0 {
		db = db.Where("creator_id = ?", filter.CreatorID)
	}

	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count parties: %v", err)
	}

	var parties []model.Party
	err := db.
		Preload("Creator", selectCreator).
		Order(clause.OrderByColumn{Column: clause.Column{Name: sortColumns[filter.Sort]}, Desc: filter.Order == OrderDesc}).
		Order("id").
		Offset((filter.Page - 1) * filter.Size).
		Limit(filter.Size).
		Find(&parties).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find parties: %v", err)
	}

	return parties, total, nil
}

func (r repository) findWithCoordinates(ctx context.Context) ([]model.Party, error) {
	var parties []model.Party
	err := r.db.
		WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Order("starts_at").
		Find(&parties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find parties with coordinates: %v", err)
	}
	return parties, nil
}

// delete removes the party along with its comments, ratings and souvenirs. The object keys of the
// souvenirs are returned so the stored objects can be removed.
func (r repository) delete(ctx context.Context, id uint) ([]string, error) {
	ctx = context.WithoutCancel(ctx)

	var keys []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model.Party{}, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errdef.NewNotFound("party not found by id: %d", id)
			}
			return err
		}

		if err := tx.Model(&model.Souvenir{}).Where("party_id = ?", id).Pluck("key", &keys).Error; err != nil {
			return fmt.Errorf("failed to find souvenirs of party %d: %v", id, err)
		}

		if err := tx.Where("party_id = ?", id).Delete(&model.Souvenir{}).Error; err != nil {
			return fmt.Errorf("failed to delete souvenirs of party %d: %v", id, err)
		}

		if err := tx.Where("party_id = ?", id).Delete(&model.Rating{}).Error; err != nil {
			return fmt.Errorf("failed to delete ratings of party %d: %v", id, err)
		}

		if err := tx.Unscoped().Where("party_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments of party %d: %v", id, err)
		}

		return tx.Delete(&model.Party{}, id).Error
	})

	return keys, err
}
