package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps bookings in process. It backs local development (STORAGE_BACKEND=memory)
// and the service tests. Like the hosted table it enforces ownership on writes but has no
// overlap constraint.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]Booking
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		store: make(map[string]Booking),
		now:   time.Now,
	}
}

func (m *MemoryRepository) List(_ context.Context, filter Filter) ([]*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Booking, 0, len(m.store))
	for _, b := range m.store {
		if filter.From != nil && b.Date.Before(NormalizeDate(*filter.From)) {
			continue
		}
		if filter.To != nil && b.Date.After(NormalizeDate(*filter.To)) {
			continue
		}
		if filter.OwnerID != "" && b.OwnerID != filter.OwnerID {
			continue
		}
		cp := b
		out = append(out, &cp)
	}

	sortBookings(out)
	return out, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.store[id]
	if !ok {
		return nil, ErrNotFoundOrForbidden
	}
	return &b, nil
}

func (m *MemoryRepository) Create(_ context.Context, form Form, ownerID string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := Booking{
		ID:        uuid.NewString(),
		CreatedAt: m.now().UTC(),
		OwnerID:   ownerID,
	}
	applyForm(&b, form)
	m.store[b.ID] = b
	return &b, nil
}

func (m *MemoryRepository) Update(_ context.Context, id string, form Form, ownerID string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.store[id]
	if !ok || b.OwnerID != ownerID {
		return nil, ErrNotFoundOrForbidden
	}
	applyForm(&b, form)
	m.store[id] = b
	return &b, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.store[id]
	if !ok || b.OwnerID != ownerID {
		return ErrNotFoundOrForbidden
	}
	delete(m.store, id)
	return nil
}

func applyForm(b *Booking, f Form) {
	b.Date = NormalizeDate(f.Date)
	b.StartTime = f.StartTime
	b.EndTime = f.EndTime
	b.Title = f.Title
	b.BookedBy = f.BookedBy
	b.Email = f.Email
	b.Department = f.Department
}
