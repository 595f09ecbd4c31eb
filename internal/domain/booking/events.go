package booking

import (
	"time"

	"tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/user"
)

type Created struct {
	BookingID ID          `json:"booking_id"`
	ListingID listings.ID `json:"listing_id"`
	TenantID  user.ID     `json:"tenant_id"`
	CheckIn   string      `json:"check_in"`
	CheckOut  string      `json:"check_out"`
	Total     int64       `json:"total"`
	At        time.Time   `json:"at"`
}

func (e Created) EventName() string     { return "booking.created" }
func (e Created) AggregateID() string   { return string(e.BookingID) }
func (e Created) OccurredAt() time.Time { return e.At }
