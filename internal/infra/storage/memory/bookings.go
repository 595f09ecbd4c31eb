package memory

import (
	"context"
	"sync"

	domainbooking "tinyhouse/internal/domain/booking"
	"tinyhouse/internal/domain/shared/paging"
)

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	order []domainbooking.ID
	items map[domainbooking.ID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.ID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; ok {
		return ErrDuplicateID
	}
	r.items[b.ID] = b.Clone()
	r.order = append(r.order, b.ID)
	return nil
}

func (r *BookingRepository) ByIDs(ctx context.Context, ids []string, w paging.Window) (paging.Page[*domainbooking.Booking], error) {
	wanted := make(map[domainbooking.ID]struct{}, len(ids))
	for _, id := range ids {
		wanted[domainbooking.ID(id)] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0, len(ids))
	for _, id := range r.order {
		if _, ok := wanted[id]; ok {
			matches = append(matches, r.items[id])
		}
	}
	page := paging.Of(matches, w)
	for i, b := range page.Result {
		page.Result[i] = b.Clone()
	}
	return page, nil
}

// Len reports how many bookings are stored.
func (r *BookingRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
