package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"school-inventory/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRollbackDiscardsStagedWrites(t *testing.T) {
	store := NewStore()
	item := store.AddItem(model.Item{Name: "Stapler", Quantity: 10})
	items := NewItemRepository(store)
	tm := NewTransactionManager(store)

	boom := errors.New("boom")
	err := tm.RunInTx(context.Background(), func(txCtx context.Context) error {
		locked, err := items.FindByIDForUpdate(txCtx, item.ID)
		require.NoError(t, err)
		require.NoError(t, items.UpdateQuantity(txCtx, item.ID, locked.Quantity-4))

		inside, err := items.FindByID(txCtx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, inside.Quantity, "transaction sees its own write")

		outside, err := items.FindByID(context.Background(), item.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, outside.Quantity, "others do not see uncommitted writes")
		return boom
	})
	require.ErrorIs(t, err, boom)

	committed, _ := store.Item(item.ID)
	assert.Equal(t, 10, committed.Quantity)
}

func TestCommitAppliesWrites(t *testing.T) {
	store := NewStore()
	item := store.AddItem(model.Item{Name: "Marker", Quantity: 5})
	items := NewItemRepository(store)
	audits := NewAuditRepository(store)

	err := NewTransactionManager(store).RunInTx(context.Background(), func(txCtx context.Context) error {
		if err := items.UpdateQuantity(txCtx, item.ID, 2); err != nil {
			return err
		}
		return audits.Log(txCtx, &model.AuditLog{Action: model.ActionFulfillRequest, EntityID: "r-1"})
	})
	require.NoError(t, err)

	committed, _ := store.Item(item.ID)
	assert.Equal(t, 2, committed.Quantity)
	assert.Len(t, store.AuditLogs(), 1)
}

func TestRowLockSerializesTransactions(t *testing.T) {
	store := NewStore()
	item := store.AddItem(model.Item{Name: "Paper", Quantity: 100})
	items := NewItemRepository(store)
	tm := NewTransactionManager(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tm.RunInTx(context.Background(), func(txCtx context.Context) error {
				locked, err := items.FindByIDForUpdate(txCtx, item.ID)
				if err != nil {
					return err
				}
				time.Sleep(time.Millisecond)
				return items.UpdateQuantity(txCtx, item.ID, locked.Quantity-1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	committed, _ := store.Item(item.ID)
	assert.Equal(t, 80, committed.Quantity, "no lost updates under the row lock")
}

func TestLockWaitHonoursContext(t *testing.T) {
	store := NewStore()
	item := store.AddItem(model.Item{Name: "Glue", Quantity: 1})
	items := NewItemRepository(store)
	tm := NewTransactionManager(store)

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = tm.RunInTx(context.Background(), func(txCtx context.Context) error {
			_, err := items.FindByIDForUpdate(txCtx, item.ID)
			close(held)
			<-done
			return err
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := items.FindByIDForUpdate(txCtx, item.ID)
		return err
	})
	close(done)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNotFoundUsesGormSentinel(t *testing.T) {
	store := NewStore()
	_, err := NewItemRepository(store).FindByName(context.Background(), "Nothing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
