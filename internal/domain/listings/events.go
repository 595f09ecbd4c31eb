package listings

import (
	"time"

	"tinyhouse/internal/domain/user"
)

type Created struct {
	ListingID ID        `json:"listing_id"`
	HostID    user.ID   `json:"host_id"`
	Type      Type      `json:"type"`
	City      string    `json:"city"`
	Price     int64     `json:"price"`
	At        time.Time `json:"at"`
}

func (e Created) EventName() string     { return "listing.created" }
func (e Created) AggregateID() string   { return string(e.ListingID) }
func (e Created) OccurredAt() time.Time { return e.At }

func CreatedEvent(l *Listing) Created {
	return Created{ListingID: l.ID, HostID: l.Host, Type: l.Type, City: l.Location.City, Price: l.Price, At: l.CreatedAt}
}
