package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	bookingapp "tinyhouse/internal/app/handlers/bookings"
	domainlistings "tinyhouse/internal/domain/listings"
)

const IdempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

// Create books the listing for the viewer. A repeated Idempotency-Key replays
// the first successful response.
func (h BookingHandler) Create(c *gin.Context) {
	if h.Commands == nil {
		unavailable(c, "booking handler")
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid booking payload")
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		Viewer:          currentViewer(c),
		ListingID:       domainlistings.ID(req.ID),
		Source:          req.Source,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(IdempotencyHeader)),
	}
	view, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

var _ BookingHTTP = BookingHandler{}
