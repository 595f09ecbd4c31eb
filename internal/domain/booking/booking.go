package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/events"
	"tinyhouse/internal/domain/shared/paging"
	"tinyhouse/internal/domain/user"
)

// MaxNights caps a single stay.
const MaxNights = 90

var (
	ErrIDRequired     = errors.New("booking: id is required")
	ErrTenantRequired = errors.New("booking: tenant is required")
	ErrPastCheckIn    = errors.New("booking: check in date cannot be in the past")
	ErrStayTooLong    = errors.New("booking: stay cannot exceed 90 nights")
	ErrOwnListing     = errors.New("booking: hosts cannot book their own listing")
	ErrNotFound       = errors.New("booking: not found")
)

type ID string

type Booking struct {
	ID        ID
	ListingID listings.ID
	TenantID  user.ID
	Range     daterange.DateRange
	Total     int64
	CreatedAt time.Time
	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	Insert(ctx context.Context, b *Booking) error
	// ByIDs returns the bookings among ids in store order, windowed by w.
	ByIDs(ctx context.Context, ids []string, w paging.Window) (paging.Page[*Booking], error)
}

type CreateParams struct {
	ID        ID
	ListingID listings.ID
	TenantID  user.ID
	Range     daterange.DateRange
	Total     int64
	CreatedAt time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.TenantID)) == "" {
		return nil, ErrTenantRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		TenantID:  params.TenantID,
		Range:     params.Range,
		Total:     params.Total,
		CreatedAt: now,
	}
	b.Record(Created{
		BookingID: b.ID,
		ListingID: b.ListingID,
		TenantID:  b.TenantID,
		CheckIn:   b.Range.CheckIn.Format(daterange.Layout),
		CheckOut:  b.Range.CheckOut.Format(daterange.Layout),
		Total:     b.Total,
		At:        now,
	})
	return b, nil
}

// ValidateStay checks r against the stay policy relative to now.
func ValidateStay(r daterange.DateRange, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.CheckIn.Before(daterange.Day(now.UTC())) {
		return ErrPastCheckIn
	}
	if r.Nights() > MaxNights {
		return ErrStayTooLong
	}
	return nil
}

func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	return &Booking{
		ID:        b.ID,
		ListingID: b.ListingID,
		TenantID:  b.TenantID,
		Range:     b.Range,
		Total:     b.Total,
		CreatedAt: b.CreatedAt,
	}
}
