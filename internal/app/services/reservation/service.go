// Package reservation books listings. The conflict check and the index merge
// commit together through a version compare-and-swap on the listing.
package reservation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tinyhouse/internal/app/apperr"
	appoutbox "tinyhouse/internal/app/outbox"
	"tinyhouse/internal/app/services/authz"
	domainavailability "tinyhouse/internal/domain/availability"
	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/events"
	domainuser "tinyhouse/internal/domain/user"
)

const defaultMaxAttempts = 16

var (
	ErrNoHostWallet = errors.New("reservation: host has not connected a wallet")
	ErrContention   = errors.New("reservation: listing is busy, try again")
)

// ChargeParams describe a tenant payment routed to the host's wallet.
type ChargeParams struct {
	Amount      int64
	Source      string
	Destination string
	Description string
}

type PaymentGateway interface {
	Charge(ctx context.Context, params ChargeParams) (string, error)
}

// Observer receives booking outcomes and commit retries.
type Observer interface {
	ObserveBooking(outcome string)
	ObserveCommitRetry()
}

type Service struct {
	Listings    domainlistings.Repository
	Bookings    domainbooking.Repository
	Users       domainuser.Repository
	Payments    PaymentGateway
	Outbox      appoutbox.Outbox
	Encoder     appoutbox.EventEncoder
	Observer    Observer
	Logger      *slog.Logger
	MaxAttempts int
	NewID       func() string
	Now         func() time.Time
}

type CreateParams struct {
	Viewer    domainuser.Viewer
	ListingID domainlistings.ID
	Source    string
	CheckIn   string
	CheckOut  string
}

type Result struct {
	Booking *domainbooking.Booking
	Listing *domainlistings.Listing
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Result, error) {
	const op = "reservation.Create"
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if err := authz.Require(params.Viewer, op); err != nil {
		return nil, err
	}
	now := s.now()
	stay, err := daterange.Parse(params.CheckIn, params.CheckOut)
	if err != nil {
		s.observe("invalid")
		return nil, apperr.Validation(op, err)
	}
	if err := domainbooking.ValidateStay(stay, now); err != nil {
		s.observe("invalid")
		return nil, apperr.Validation(op, err)
	}

	listing, err := s.Listings.ByID(ctx, params.ListingID)
	if err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			return nil, apperr.NotFound(op, err)
		}
		return nil, apperr.Store(op, err)
	}
	if listing.Host == params.Viewer.ID {
		s.observe("invalid")
		return nil, apperr.Validation(op, domainbooking.ErrOwnListing)
	}
	host, err := s.Users.ByID(ctx, listing.Host)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, apperr.NotFound(op, err)
		}
		return nil, apperr.Store(op, err)
	}
	if !host.HasWallet() {
		s.observe("invalid")
		return nil, apperr.Validation(op, ErrNoHostWallet)
	}

	bookingID := domainbooking.ID(s.newID())
	committed, err := s.commit(ctx, listing, stay, bookingID)
	if err != nil {
		return nil, err
	}

	total := committed.Price * int64(stay.Nights())
	if _, err := s.Payments.Charge(ctx, ChargeParams{
		Amount:      total,
		Source:      strings.TrimSpace(params.Source),
		Destination: host.WalletID,
		Description: "booking " + string(bookingID),
	}); err != nil {
		s.observe("payment_failed")
		if relErr := s.release(ctx, committed, stay, bookingID); relErr != nil && s.Logger != nil {
			s.Logger.ErrorContext(ctx, "failed to release reserved dates", "listing_id", committed.ID, "booking_id", bookingID, "error", relErr)
		}
		return nil, apperr.Provider(op, err)
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        bookingID,
		ListingID: committed.ID,
		TenantID:  params.Viewer.ID,
		Range:     stay,
		Total:     total,
		CreatedAt: now,
	})
	if err != nil {
		return nil, apperr.Validation(op, err)
	}
	// The writes below are not atomic with the index commit; a failure leaves
	// the dates reserved without a booking document.
	if err := s.Bookings.Insert(ctx, b); err != nil {
		return nil, apperr.Store(op, err)
	}
	if err := s.Users.AddIncome(ctx, host.ID, total); err != nil {
		return nil, apperr.Store(op, err)
	}
	if err := s.Users.AppendBooking(ctx, params.Viewer.ID, string(b.ID)); err != nil {
		return nil, apperr.Store(op, err)
	}

	evs := append(b.Drain(), domainavailability.DatesReserved{ListingID: string(committed.ID), Range: stay, At: now})
	if err := appoutbox.Record(ctx, s.Outbox, s.Encoder, evs...); err != nil && s.Logger != nil {
		s.Logger.ErrorContext(ctx, "failed to record booking events", "booking_id", b.ID, "error", err)
	}
	s.observe("ok")
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "booking created", "booking_id", b.ID, "listing_id", committed.ID, "tenant_id", b.TenantID, "nights", stay.Nights())
	}
	return &Result{Booking: b, Listing: committed}, nil
}

// commit runs check-then-merge against the latest listing state until the
// version compare-and-swap succeeds or the range is found taken.
func (s *Service) commit(ctx context.Context, listing *domainlistings.Listing, stay daterange.DateRange, bookingID domainbooking.ID) (*domainlistings.Listing, error) {
	const op = "reservation.Create"
	current := listing
	for attempt := 0; attempt < s.maxAttempts(); attempt++ {
		next, err := current.Index.Reserve(stay)
		if err != nil {
			s.observe("conflict")
			s.recordEvents(ctx, domainavailability.OverbookingPrevented{ListingID: string(current.ID), Range: stay, At: s.now()})
			return nil, apperr.Conflict(op, err)
		}
		updated, err := s.Listings.CommitIndex(ctx, domainlistings.IndexUpdate{
			ID:         current.ID,
			Version:    current.IndexVersion,
			Index:      next,
			AddBooking: string(bookingID),
		})
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domainlistings.ErrConcurrentUpdate) {
			return nil, apperr.Store(op, err)
		}
		if s.Observer != nil {
			s.Observer.ObserveCommitRetry()
		}
		current, err = s.Listings.ByID(ctx, listing.ID)
		if err != nil {
			return nil, apperr.Store(op, err)
		}
	}
	s.observe("contention")
	return nil, apperr.Conflict(op, ErrContention)
}

// release undoes a committed reservation whose charge failed.
func (s *Service) release(ctx context.Context, committed *domainlistings.Listing, stay daterange.DateRange, bookingID domainbooking.ID) error {
	current := committed
	for attempt := 0; attempt < s.maxAttempts(); attempt++ {
		_, err := s.Listings.CommitIndex(ctx, domainlistings.IndexUpdate{
			ID:            current.ID,
			Version:       current.IndexVersion,
			Index:         current.Index.Release(stay),
			RemoveBooking: string(bookingID),
		})
		if err == nil {
			s.recordEvents(ctx, domainavailability.DatesReleased{ListingID: string(current.ID), Range: stay, At: s.now()})
			return nil
		}
		if !errors.Is(err, domainlistings.ErrConcurrentUpdate) {
			return err
		}
		if current, err = s.Listings.ByID(ctx, committed.ID); err != nil {
			return err
		}
	}
	return ErrContention
}

func (s *Service) recordEvents(ctx context.Context, evs ...events.DomainEvent) {
	if err := appoutbox.Record(ctx, s.Outbox, s.Encoder, evs...); err != nil && s.Logger != nil {
		s.Logger.ErrorContext(ctx, "failed to record events", "error", err)
	}
}

func (s *Service) observe(outcome string) {
	if s.Observer != nil {
		s.Observer.ObserveBooking(outcome)
	}
}

func (s *Service) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return defaultMaxAttempts
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Listings == nil:
		return errors.New("reservation: listing repository required")
	case s.Bookings == nil:
		return errors.New("reservation: booking repository required")
	case s.Users == nil:
		return errors.New("reservation: user repository required")
	case s.Payments == nil:
		return errors.New("reservation: payment gateway required")
	default:
		return nil
	}
}
