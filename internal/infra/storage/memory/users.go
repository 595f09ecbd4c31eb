package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainuser "tinyhouse/internal/domain/user"
)

// UserRepository stores users in memory. Not suitable for production.
type UserRepository struct {
	mu   sync.RWMutex
	byID map[domainuser.ID]*domainuser.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byID: make(map[domainuser.ID]*domainuser.User)}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[id]; ok {
		return u.Clone(), nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) ByIDAndToken(ctx context.Context, id domainuser.ID, token string) (*domainuser.User, error) {
	if id == "" || token == "" {
		return nil, domainuser.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok || u.Token != token {
		return nil, domainuser.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) UpsertLogin(ctx context.Context, profile domainuser.Profile, token string, now time.Time) (*domainuser.User, bool, error) {
	id := domainuser.ID(strings.TrimSpace(string(profile.ID)))
	if id == "" {
		return nil, false, domainuser.ErrIDRequired
	}
	now = now.UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		u = &domainuser.User{
			ID:        id,
			Listings:  []string{},
			Bookings:  []string{},
			CreatedAt: now,
		}
		r.byID[id] = u
	}
	u.Name = profile.Name
	u.Avatar = profile.Avatar
	u.Contact = profile.Contact
	u.Token = token
	u.UpdatedAt = now
	return u.Clone(), !ok, nil
}

func (r *UserRepository) RotateToken(ctx context.Context, id domainuser.ID, token string, now time.Time) (*domainuser.User, error) {
	return r.update(id, func(u *domainuser.User) {
		u.Token = token
		u.UpdatedAt = now.UTC()
	})
}

func (r *UserRepository) SetWallet(ctx context.Context, id domainuser.ID, walletID string, now time.Time) (*domainuser.User, error) {
	return r.update(id, func(u *domainuser.User) {
		u.WalletID = walletID
		u.UpdatedAt = now.UTC()
	})
}

func (r *UserRepository) AddIncome(ctx context.Context, id domainuser.ID, amount int64) error {
	if amount <= 0 {
		return domainuser.ErrNegativeIncome
	}
	_, err := r.update(id, func(u *domainuser.User) { u.Income += amount })
	return err
}

func (r *UserRepository) AppendListing(ctx context.Context, id domainuser.ID, listingID string) error {
	_, err := r.update(id, func(u *domainuser.User) { u.Listings = append(u.Listings, listingID) })
	return err
}

func (r *UserRepository) AppendBooking(ctx context.Context, id domainuser.ID, bookingID string) error {
	_, err := r.update(id, func(u *domainuser.User) { u.Bookings = append(u.Bookings, bookingID) })
	return err
}

// Put stores u as is. Used for fixtures.
func (r *UserRepository) Put(u *domainuser.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u.Clone()
}

func (r *UserRepository) update(id domainuser.ID, fn func(u *domainuser.User)) (*domainuser.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	fn(u)
	return u.Clone(), nil
}

var _ domainuser.Repository = (*UserRepository)(nil)
