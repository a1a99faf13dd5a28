// Package memory is an in-process implementation of the repository ports.
//
// It honours the same contract as the GORM repositories: rows read with
// ...ForUpdate stay locked until the transaction ends, writes made inside a
// transaction are invisible to others until commit, and a failed transaction
// leaves no trace.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"school-inventory/internal/model"

	"github.com/google/uuid"
)

// Store holds committed rows and the row locks shared by all transactions
type Store struct {
	mu          sync.Mutex
	items       map[uuid.UUID]model.Item
	requests    map[uuid.UUID]model.Request
	users       map[uuid.UUID]model.User
	departments map[uuid.UUID]model.Department
	movements   []model.StockMovement
	audits      []model.AuditLog
	locks       map[string]chan struct{}
}

func NewStore() *Store {
	return &Store{
		items:       make(map[uuid.UUID]model.Item),
		requests:    make(map[uuid.UUID]model.Request),
		users:       make(map[uuid.UUID]model.User),
		departments: make(map[uuid.UUID]model.Department),
		locks:       make(map[string]chan struct{}),
	}
}

// AddDepartment inserts a committed department, assigning an id when missing
func (s *Store) AddDepartment(d model.Department) model.Department {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[d.ID] = d
	return d
}

// AddUser inserts a committed user, assigning an id when missing
func (s *Store) AddUser(u model.User) model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Department = nil
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return u
}

// AddItem inserts a committed item, assigning an id when missing
func (s *Store) AddItem(i model.Item) model.Item {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	now := time.Now()
	i.CreatedAt, i.UpdatedAt = now, now
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[i.ID] = i
	return i
}

// Item returns the committed state of an item
func (s *Store) Item(id uuid.UUID) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.items[id]
	return i, ok
}

// Request returns the committed state of a request
func (s *Store) Request(id uuid.UUID) (model.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	return r, ok
}

// Requests returns every committed request
func (s *Store) Requests() []model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Request, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestDate.After(out[j].RequestDate) })
	return out
}

// Movements returns the committed stock ledger
func (s *Store) Movements() []model.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StockMovement(nil), s.movements...)
}

// AuditLogs returns the committed audit trail
func (s *Store) AuditLogs() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLog(nil), s.audits...)
}

func (s *Store) rowLock(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

func itemKey(id uuid.UUID) string    { return "items:" + id.String() }
func requestKey(id uuid.UUID) string { return "item_requests:" + id.String() }

type txKey struct{}

// tx is one unit of work: the locks it holds and the writes it has staged
type tx struct {
	store     *Store
	held      map[string]chan struct{}
	items     map[uuid.UUID]model.Item
	requests  map[uuid.UUID]model.Request
	movements []model.StockMovement
	audits    []model.AuditLog
}

func newTx(s *Store) *tx {
	return &tx{
		store:    s,
		held:     make(map[string]chan struct{}),
		items:    make(map[uuid.UUID]model.Item),
		requests: make(map[uuid.UUID]model.Request),
	}
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

func (t *tx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	ch := t.store.rowLock(key)
	select {
	case ch <- struct{}{}:
		t.held[key] = ch
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *tx) release() {
	for key, ch := range t.held {
		<-ch
		delete(t.held, key)
	}
}

func (t *tx) commit() {
	s := t.store
	s.mu.Lock()
	for id, item := range t.items {
		s.items[id] = item
	}
	for id, req := range t.requests {
		s.requests[id] = req
	}
	s.movements = append(s.movements, t.movements...)
	s.audits = append(s.audits, t.audits...)
	s.mu.Unlock()
}

// TransactionManager runs units of work against a Store
type TransactionManager struct {
	store *Store
}

func NewTransactionManager(s *Store) *TransactionManager {
	return &TransactionManager{store: s}
}

func (m *TransactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) (err error) {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	t := newTx(m.store)
	defer func() {
		if p := recover(); p != nil {
			t.release()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		t.release()
		return err
	}
	t.commit()
	t.release()
	return nil
}

// autocommit runs a single statement outside an explicit transaction
func (s *Store) autocommit(ctx context.Context, fn func(t *tx) error) error {
	t := newTx(s)
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

// within returns the caller's transaction, or runs fn in an autocommitted one
func (s *Store) within(ctx context.Context, fn func(t *tx) error) error {
	if t := txFrom(ctx); t != nil {
		return fn(t)
	}
	return s.autocommit(ctx, fn)
}
