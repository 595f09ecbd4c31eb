package bookings

import (
	"context"
	"errors"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/services/reservation"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

const createBookingKey = "bookings.create"

var ErrReservationsRequired = errors.New("bookings: reservation service required")

type CreateBookingCommand struct {
	Viewer          domainuser.Viewer
	ListingID       domainlistings.ID
	Source          string
	CheckIn         string
	CheckOut        string
	IdempotencyKeyV string
}

func (CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) RequiredViewer() domainuser.Viewer { return c.Viewer }

// IdempotencyKey is scoped to the viewer so two users never share a replay.
func (c CreateBookingCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" || c.Viewer.ID == "" {
		return ""
	}
	return string(c.Viewer.ID) + ":" + c.IdempotencyKeyV
}

func (CreateBookingCommand) ResultPrototype() any { return &dto.BookingView{} }

type CreateBookingHandler struct {
	Reservations *reservation.Service
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.BookingView, error) {
	if h.Reservations == nil {
		return nil, ErrReservationsRequired
	}
	res, err := h.Reservations.Create(ctx, reservation.CreateParams{
		Viewer:    cmd.Viewer,
		ListingID: cmd.ListingID,
		Source:    cmd.Source,
		CheckIn:   cmd.CheckIn,
		CheckOut:  cmd.CheckOut,
	})
	if err != nil {
		return nil, err
	}
	view := dto.MapBooking(res.Booking)
	return &view, nil
}

func Register(cmds *commands.Registry, reservations *reservation.Service) {
	commands.Register[CreateBookingCommand, *dto.BookingView](cmds, createBookingKey, &CreateBookingHandler{Reservations: reservations})
}

var _ commands.Handler[CreateBookingCommand, *dto.BookingView] = (*CreateBookingHandler)(nil)
