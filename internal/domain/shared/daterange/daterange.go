package daterange

import (
	"errors"
	"strings"
	"time"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDate  = errors.New("daterange: date must use YYYY-MM-DD")
)

// DateRange represents a half-open interval of calendar days [checkIn, checkOut).
// Both bounds are normalized to midnight UTC so no time-of-day survives.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New builds a validated range of at least one night.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := Span(checkIn, checkOut)
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Span builds a range without validation. An empty or inverted span has no days.
func Span(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

// Parse reads both bounds in YYYY-MM-DD form and validates the result.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

// ParseDate parses a calendar date. RFC3339 timestamps are accepted and truncated.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(Layout, raw); err == nil {
		return Day(t), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return Day(t), nil
	}
	return time.Time{}, ErrInvalidDate
}

// Day truncates t to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Empty reports whether the range covers no day.
func (dr DateRange) Empty() bool {
	return !dr.CheckOut.After(dr.CheckIn)
}

func (dr DateRange) Nights() int {
	if dr.Empty() {
		return 0
	}
	n := 0
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// Each calls fn for every day in the range, in order, until fn returns false.
func (dr DateRange) Each(fn func(day time.Time) bool) {
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		if !fn(d) {
			return
		}
	}
}

// Days materializes every day covered by the range.
func (dr DateRange) Days() []time.Time {
	days := make([]time.Time, 0, dr.Nights())
	dr.Each(func(day time.Time) bool {
		days = append(days, day)
		return true
	})
	return days
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

func (dr DateRange) String() string {
	return dr.CheckIn.Format(Layout) + "/" + dr.CheckOut.Format(Layout)
}
