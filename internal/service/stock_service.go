package service

import (
	"context"
	"errors"
	"fmt"

	"school-inventory/internal/repository"
	"school-inventory/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockMovementResponse struct {
	ID              string  `json:"id"`
	RequestID       *string `json:"request_id"`
	MovementType    string  `json:"movement_type"`
	QuantityChanged int     `json:"quantity_changed"`
	StockAfter      int     `json:"stock_after"`
	CreatedBy       *string `json:"created_by"`
	CreatedAt       string  `json:"created_at"`
}

type ItemStockResponse struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Quantity  int                     `json:"quantity"`
	UnitCost  string                  `json:"unit_cost"`
	Movements []StockMovementResponse `json:"movements"`
}

// StockService exposes the stock ledger of a single item
type StockService interface {
	GetItemStock(ctx context.Context, itemID string) (ItemStockResponse, error)
}

type stockService struct {
	items     repository.ItemRepository
	movements repository.StockMovementRepository
}

func NewStockService(items repository.ItemRepository, movements repository.StockMovementRepository) StockService {
	return &stockService{items: items, movements: movements}
}

func (s *stockService) GetItemStock(ctx context.Context, itemID string) (ItemStockResponse, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return ItemStockResponse{}, apperror.Validation("invalid item id %q", itemID)
	}

	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemStockResponse{}, apperror.NotFound("item not found")
		}
		return ItemStockResponse{}, fmt.Errorf("failed to load item: %w", err)
	}

	movements, err := s.movements.ListByItem(ctx, id)
	if err != nil {
		return ItemStockResponse{}, fmt.Errorf("failed to load stock movements: %w", err)
	}

	res := ItemStockResponse{
		ID:        item.ID.String(),
		Name:      item.Name,
		Quantity:  item.Quantity,
		UnitCost:  item.UnitCost.StringFixed(2),
		Movements: make([]StockMovementResponse, 0, len(movements)),
	}
	for _, m := range movements {
		mr := StockMovementResponse{
			ID:              m.ID.String(),
			MovementType:    m.MovementType,
			QuantityChanged: m.QuantityChanged,
			StockAfter:      m.StockAfter,
			CreatedAt:       m.CreatedAt.Format(dateLayout),
		}
		if m.RequestID != nil {
			rid := m.RequestID.String()
			mr.RequestID = &rid
		}
		if m.CreatedBy != nil {
			by := m.CreatedBy.String()
			mr.CreatedBy = &by
		}
		res.Movements = append(res.Movements, mr)
	}
	return res, nil
}
