package service

import (
	"context"
	"testing"

	"school-inventory/internal/repository/memory"
	"school-inventory/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetItemStockListsFulfillmentMovements(t *testing.T) {
	f := newFixture(t, 50)
	id := f.submit(t, f.staff, 8)
	_, err := f.transition(f.manager, id, TransitionDTO{Status: "approved"})
	require.NoError(t, err)
	_, err = f.transition(f.manager, id, TransitionDTO{Status: "fulfilled", FulfilledQuantity: 3})
	require.NoError(t, err)
	_, err = f.transition(f.manager, id, TransitionDTO{Status: "fulfilled", FulfilledQuantity: 5})
	require.NoError(t, err)

	stock := NewStockService(memory.NewItemRepository(f.store), memory.NewStockMovementRepository(f.store))
	res, err := stock.GetItemStock(context.Background(), f.paper.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "A4 Paper", res.Name)
	assert.Equal(t, 42, res.Quantity)
	assert.Equal(t, "2.50", res.UnitCost)
	require.Len(t, res.Movements, 2)
	assert.Equal(t, -3, res.Movements[0].QuantityChanged)
	assert.Equal(t, 47, res.Movements[0].StockAfter)
	assert.Equal(t, -5, res.Movements[1].QuantityChanged)
	assert.Equal(t, 42, res.Movements[1].StockAfter)
	require.NotNil(t, res.Movements[1].RequestID)
	assert.Equal(t, id, *res.Movements[1].RequestID)
}

func TestGetItemStockErrors(t *testing.T) {
	store := memory.NewStore()
	stock := NewStockService(memory.NewItemRepository(store), memory.NewStockMovementRepository(store))

	_, err := stock.GetItemStock(context.Background(), "nope")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = stock.GetItemStock(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
