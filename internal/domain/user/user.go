package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired        = errors.New("user: id is required")
	ErrProfileIncomplete = errors.New("user: provider profile is missing identity fields")
	ErrNotFound          = errors.New("user: not found")
	ErrNegativeIncome    = errors.New("user: income delta must be positive")
)

// ID is the identity provider subject id.
type ID string

type User struct {
	ID        ID
	Token     string
	Name      string
	Avatar    string
	Contact   string
	WalletID  string
	Income    int64
	Listings  []string
	Bookings  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) HasWallet() bool {
	return u != nil && strings.TrimSpace(u.WalletID) != ""
}

// Clone returns a deep copy so stores never hand out shared slices.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Listings = append([]string(nil), u.Listings...)
	cp.Bookings = append([]string(nil), u.Bookings...)
	return &cp
}

// Profile is what the identity provider tells us about a subject.
type Profile struct {
	ID      ID
	Name    string
	Avatar  string
	Contact string
}

// Validate requires every identity field; a partial profile cannot create a user.
func (p Profile) Validate() error {
	if strings.TrimSpace(string(p.ID)) == "" ||
		strings.TrimSpace(p.Name) == "" ||
		strings.TrimSpace(p.Avatar) == "" ||
		strings.TrimSpace(p.Contact) == "" {
		return ErrProfileIncomplete
	}
	return nil
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	// ByIDAndToken is a single lookup matching both fields on one document.
	ByIDAndToken(ctx context.Context, id ID, token string) (*User, error)
	// UpsertLogin creates the user on first login or refreshes the profile and
	// token otherwise. created reports which branch ran.
	UpsertLogin(ctx context.Context, profile Profile, token string, now time.Time) (u *User, created bool, err error)
	// RotateToken replaces the token of an existing user and returns the new state.
	RotateToken(ctx context.Context, id ID, token string, now time.Time) (*User, error)
	SetWallet(ctx context.Context, id ID, walletID string, now time.Time) (*User, error)
	AddIncome(ctx context.Context, id ID, amount int64) error
	AppendListing(ctx context.Context, id ID, listingID string) error
	AppendBooking(ctx context.Context, id ID, bookingID string) error
}
