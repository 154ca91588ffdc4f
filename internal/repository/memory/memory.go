// Package memory is an in-process implementation of every repository
// interface. It backs the service tests and `database.driver: memory` runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
)

// DB holds all tables behind one mutex.
type DB struct {
	mu       sync.Mutex
	now      func() time.Time
	bookings []*model.Booking
	clients  []*model.Client
	services []*model.Service
	staff    []*model.Employee
	pending  []*model.PendingNotification
	stats    map[uuid.UUID]*model.SyncStats
	outbox   []*model.OutboxEvent
}

func New() *DB {
	return &DB{
		now:   func() time.Time { return time.Now().UTC() },
		stats: make(map[uuid.UUID]*model.SyncStats),
	}
}

// NewStore returns a Store whose repositories all share one DB.
func NewStore() (*repository.Store, *DB) {
	db := New()
	return db.Store(), db
}

func (db *DB) Store() *repository.Store {
	return &repository.Store{
		Bookings:  bookingRepo{db},
		Clients:   clientRepo{db},
		Catalog:   catalogRepo{db},
		Pending:   pendingRepo{db},
		SyncStats: syncStatsRepo{db},
		Outbox:    outboxRepo{db},
		Pinger:    db,
		Close:     func() error { return nil },
	}
}

// SetClock replaces the time source used for timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

func (db *DB) Ping(context.Context) error { return nil }

// AddService seeds an active service for tenantID.
func (db *DB) AddService(tenantID uuid.UUID, name string) *model.Service {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := &model.Service{ID: uuid.New(), TenantID: tenantID, Name: name, Active: true}
	db.services = append(db.services, s)
	return s
}

// AddEmployee seeds an active employee for tenantID.
func (db *DB) AddEmployee(tenantID uuid.UUID, firstName, lastName string) *model.Employee {
	db.mu.Lock()
	defer db.mu.Unlock()
	e := &model.Employee{ID: uuid.New(), TenantID: tenantID, FirstName: firstName, LastName: lastName, Active: true}
	db.staff = append(db.staff, e)
	return e
}

// Deactivate marks a seeded service or employee inactive.
func (db *DB) Deactivate(id uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, s := range db.services {
		if s.ID == id {
			s.Active = false
		}
	}
	for _, e := range db.staff {
		if e.ID == id {
			e.Active = false
		}
	}
}

// Bookings returns copies of the tenant's bookings in insertion order.
func (db *DB) Bookings(tenantID uuid.UUID) []model.Booking {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.Booking
	for _, b := range db.bookings {
		if b.TenantID == tenantID {
			out = append(out, *b)
		}
	}
	return out
}

// Clients returns copies of the tenant's clients.
func (db *DB) Clients(tenantID uuid.UUID) []model.Client {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.Client
	for _, c := range db.clients {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out
}

// OutboxEvents returns copies of every stored event.
func (db *DB) OutboxEvents() []model.OutboxEvent {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]model.OutboxEvent, 0, len(db.outbox))
	for _, e := range db.outbox {
		out = append(out, *e)
	}
	return out
}

type bookingRepo struct{ db *DB }

func (r bookingRepo) FindByEventID(_ context.Context, tenantID uuid.UUID, eventID string) (*model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := len(r.db.bookings) - 1; i >= 0; i-- {
		b := r.db.bookings[i]
		if b.TenantID != tenantID {
			continue
		}
		if (b.ProviderEventID != nil && *b.ProviderEventID == eventID) || model.HasEventMarker(b.Notes, eventID) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r bookingRepo) Create(_ context.Context, b *model.Booking, event *model.OutboxEvent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if b.ProviderEventID != nil {
		for _, existing := range r.db.bookings {
			if existing.TenantID == b.TenantID && existing.ProviderEventID != nil && *existing.ProviderEventID == *b.ProviderEventID {
				return repository.ErrConflict
			}
		}
	}
	now := r.db.now()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt, b.UpdatedAt = now, now
	cp := *b
	r.db.bookings = append(r.db.bookings, &cp)

	if event != nil {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		event.Status = model.OutboxStatusPending
		event.CreatedAt, event.UpdatedAt = now, now
		ev := *event
		r.db.outbox = append(r.db.outbox, &ev)
	}
	return nil
}

type clientRepo struct{ db *DB }

func (r clientRepo) FindByPhone(_ context.Context, tenantID uuid.UUID, phone string) (*model.Client, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.clients {
		if c.TenantID == tenantID && c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r clientRepo) Create(_ context.Context, c *model.Client) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.now()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	r.db.clients = append(r.db.clients, &cp)
	return nil
}

type catalogRepo struct{ db *DB }

func (r catalogRepo) ListActiveServices(_ context.Context, tenantID uuid.UUID) ([]*model.Service, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.Service
	for _, s := range r.db.services {
		if s.TenantID == tenantID && s.Active {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r catalogRepo) ListActiveEmployees(_ context.Context, tenantID uuid.UUID) ([]*model.Employee, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.Employee
	for _, e := range r.db.staff {
		if e.TenantID == tenantID && e.Active {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].FirstName+" "+out[i].LastName, out[j].FirstName+" "+out[j].LastName) < 0
	})
	return out, nil
}

type pendingRepo struct{ db *DB }

func (r pendingRepo) Create(_ context.Context, p *model.PendingNotification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = model.PendingStatusPending
	}
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	r.db.pending = append(r.db.pending, &cp)
	return nil
}

func (r pendingRepo) List(_ context.Context, tenantID uuid.UUID, status model.PendingStatus, limit int) ([]*model.PendingNotification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*model.PendingNotification{}
	// newest first; ties fall back to reverse insertion order
	for i := len(r.db.pending) - 1; i >= 0; i-- {
		p := r.db.pending[i]
		if p.TenantID != tenantID {
			continue
		}
		if status != model.PendingStatusAll && p.Status != status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r pendingRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, status model.PendingStatus) (*model.PendingNotification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.pending {
		if p.TenantID == tenantID && p.ID == id {
			p.Status = status
			p.UpdatedAt = r.db.now()
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type syncStatsRepo struct{ db *DB }

func (r syncStatsRepo) Upsert(_ context.Context, tenantID uuid.UUID, delta model.SyncDelta, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.stats[tenantID]
	if !ok {
		s = &model.SyncStats{TenantID: tenantID}
		r.db.stats[tenantID] = s
	}
	s.Total += delta.Total
	s.Success += delta.Success
	s.Errors += delta.Errors
	ts := at
	s.LastSyncAt = &ts
	return nil
}

func (r syncStatsRepo) Get(_ context.Context, tenantID uuid.UUID) (*model.SyncStats, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.stats[tenantID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

type outboxRepo struct{ db *DB }

func (r outboxRepo) ClaimPending(_ context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.now()
	var out []*model.OutboxEvent
	for _, e := range r.db.outbox {
		if len(out) >= limit {
			break
		}
		switch e.Status {
		case model.OutboxStatusPending, model.OutboxStatusRetry:
			if e.RetryAt != nil && e.RetryAt.After(now) {
				continue
			}
		case model.OutboxStatusProcessing:
			if !e.UpdatedAt.Before(now.Add(-lease)) {
				continue
			}
		default:
			continue
		}
		e.Status = model.OutboxStatusProcessing
		e.UpdatedAt = now
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r outboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range r.db.outbox {
		if e.ID == id {
			now := r.db.now()
			e.Status = model.OutboxStatusProcessed
			e.ErrorMessage = nil
			e.ProcessedAt = &now
			e.UpdatedAt = now
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r outboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range r.db.outbox {
		if e.ID == id {
			e.Status = model.OutboxStatusFailed
			if retryAt != nil {
				e.Status = model.OutboxStatusRetry
			}
			msg := errMsg
			e.ErrorMessage = &msg
			e.RetryAt = retryAt
			e.RetryCount++
			e.UpdatedAt = r.db.now()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r outboxRepo) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.outbox[:0]
	var n int64
	for _, e := range r.db.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.db.outbox = kept
	return n, nil
}
