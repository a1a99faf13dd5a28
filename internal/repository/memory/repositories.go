package memory

import (
	"context"
	"sort"
	"time"

	"school-inventory/internal/model"
	"school-inventory/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	_ repository.TransactionManager      = (*TransactionManager)(nil)
	_ repository.ItemRepository          = (*itemRepository)(nil)
	_ repository.RequestRepository       = (*requestRepository)(nil)
	_ repository.StockMovementRepository = (*stockMovementRepository)(nil)
	_ repository.AuditRepository         = (*auditRepository)(nil)
	_ repository.UserRepository          = (*userRepository)(nil)
)

// --- items ---

type itemRepository struct {
	store *Store
}

func NewItemRepository(s *Store) repository.ItemRepository {
	return &itemRepository{store: s}
}

func (r *itemRepository) read(t *tx, id uuid.UUID) (model.Item, bool) {
	if t != nil {
		if item, ok := t.items[id]; ok {
			return item, true
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item, ok := r.store.items[id]
	return item, ok
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	item, ok := r.read(txFrom(ctx), id)
	if !ok || item.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (r *itemRepository) FindByName(ctx context.Context, name string) (*model.Item, error) {
	r.store.mu.Lock()
	var found *uuid.UUID
	for id, item := range r.store.items {
		if item.Name == name && !item.DeletedAt.Valid {
			id := id
			found = &id
			break
		}
	}
	r.store.mu.Unlock()
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, *found)
}

func (r *itemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Item, error) {
	items := make([]model.Item, 0, len(ids))
	t := txFrom(ctx)
	for _, id := range ids {
		if item, ok := r.read(t, id); ok && !item.DeletedAt.Valid {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *itemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var out *model.Item
	err := r.store.within(ctx, func(t *tx) error {
		if err := t.lock(ctx, itemKey(id)); err != nil {
			return err
		}
		item, ok := r.read(t, id)
		if !ok || item.DeletedAt.Valid {
			return gorm.ErrRecordNotFound
		}
		out = &item
		return nil
	})
	return out, err
}

func (r *itemRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.store.within(ctx, func(t *tx) error {
		item, ok := r.read(t, id)
		if !ok {
			return nil // UPDATE ... WHERE id = ? matching no rows
		}
		item.Quantity = quantity
		item.UpdatedAt = time.Now()
		t.items[id] = item
		return nil
	})
}

// --- requests ---

type requestRepository struct {
	store *Store
}

func NewRequestRepository(s *Store) repository.RequestRepository {
	return &requestRepository{store: s}
}

func (r *requestRepository) read(t *tx, id uuid.UUID) (model.Request, bool) {
	if t != nil {
		if req, ok := t.requests[id]; ok {
			return req, true
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req, ok := r.store.requests[id]
	return req, ok
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	return r.store.within(ctx, func(t *tx) error {
		if req.ID == uuid.Nil {
			req.ID = uuid.New()
		}
		now := time.Now()
		req.CreatedAt, req.UpdatedAt = now, now
		t.requests[req.ID] = *req
		return nil
	})
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	req, ok := r.read(txFrom(ctx), id)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &req, nil
}

func (r *requestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var out *model.Request
	err := r.store.within(ctx, func(t *tx) error {
		if err := t.lock(ctx, requestKey(id)); err != nil {
			return err
		}
		req, ok := r.read(t, id)
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &req
		return nil
	})
	return out, err
}

func (r *requestRepository) Update(ctx context.Context, req *model.Request) error {
	return r.store.within(ctx, func(t *tx) error {
		req.UpdatedAt = time.Now()
		t.requests[req.ID] = *req
		return nil
	})
}

func (r *requestRepository) List(ctx context.Context, filter repository.RequestFilter) ([]model.Request, int64, error) {
	merged := make(map[uuid.UUID]model.Request)
	r.store.mu.Lock()
	for id, req := range r.store.requests {
		merged[id] = req
	}
	r.store.mu.Unlock()
	if t := txFrom(ctx); t != nil {
		for id, req := range t.requests {
			merged[id] = req
		}
	}

	matched := make([]model.Request, 0, len(merged))
	for _, req := range merged {
		if filter.RequesterID != nil && req.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.DepartmentID != nil && (req.RequesterDepartmentID == nil || *req.RequesterDepartmentID != *filter.DepartmentID) {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		matched = append(matched, req)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RequestDate.After(matched[j].RequestDate)
	})

	total := int64(len(matched))
	if filter.Limit > 0 {
		start := filter.Offset
		if start > len(matched) {
			start = len(matched)
		}
		end := start + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

// --- stock movements ---

type stockMovementRepository struct {
	store *Store
}

func NewStockMovementRepository(s *Store) repository.StockMovementRepository {
	return &stockMovementRepository{store: s}
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *model.StockMovement) error {
	return r.store.within(ctx, func(t *tx) error {
		if movement.ID == uuid.Nil {
			movement.ID = uuid.New()
		}
		movement.CreatedAt = time.Now()
		t.movements = append(t.movements, *movement)
		return nil
	})
}

func (r *stockMovementRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.store.Movements() {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- audit ---

type auditRepository struct {
	store *Store
}

func NewAuditRepository(s *Store) repository.AuditRepository {
	return &auditRepository{store: s}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return r.store.within(ctx, func(t *tx) error {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		entry.CreatedAt = time.Now()
		t.audits = append(t.audits, *entry)
		return nil
	})
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityID string) ([]model.AuditLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []model.AuditLog
	for _, entry := range r.store.audits {
		if entry.EntityID != entityID {
			continue
		}
		if entry.UserID != nil {
			if u, ok := r.store.users[*entry.UserID]; ok {
				u := u
				entry.User = &u
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// --- users ---

type userRepository struct {
	store *Store
}

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{store: s}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if u.DepartmentID != nil {
		if d, ok := r.store.departments[*u.DepartmentID]; ok {
			u.Department = &d
		}
	}
	return &u, nil
}
