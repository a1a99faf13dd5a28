package repository

import (
	"context"

	"school-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockMovementRepository interface {
	Create(ctx context.Context, movement *model.StockMovement) error
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.StockMovement, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *stockMovementRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	if err := GetDB(ctx, r.db).Where("item_id = ?", itemID).Order("created_at ASC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
