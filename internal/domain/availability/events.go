package availability

import (
	"time"

	"tinyhouse/internal/domain/shared/daterange"
)

type DatesReserved struct {
	ListingID string              `json:"listing_id"`
	Range     daterange.DateRange `json:"range"`
	At        time.Time           `json:"at"`
}

func (e DatesReserved) EventName() string     { return "availability.reserved" }
func (e DatesReserved) AggregateID() string   { return e.ListingID }
func (e DatesReserved) OccurredAt() time.Time { return e.At }

// DatesReleased is raised when a reservation is rolled back after a failed charge.
type DatesReleased struct {
	ListingID string              `json:"listing_id"`
	Range     daterange.DateRange `json:"range"`
	At        time.Time           `json:"at"`
}

func (e DatesReleased) EventName() string     { return "availability.released" }
func (e DatesReleased) AggregateID() string   { return e.ListingID }
func (e DatesReleased) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	ListingID string              `json:"listing_id"`
	Range     daterange.DateRange `json:"range"`
	At        time.Time           `json:"at"`
}

func (e OverbookingPrevented) EventName() string     { return "availability.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return e.ListingID }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
