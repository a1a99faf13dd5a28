package repository

import (
	"context"

	"school-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemRepository is the stock ledger port used by the request workflow.
// Item creation and deletion belong to inventory management, not here.
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindByName(ctx context.Context, name string) (*model.Item, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Item, error)
	// FindByIDForUpdate locks the item row until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByName(ctx context.Context, name string) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Item, error) {
	var items []model.Item
	if len(ids) == 0 {
		return items, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return GetDB(ctx, r.db).Model(&model.Item{}).Where("id = ?", id).Update("quantity", quantity).Error
}
