package availability

import (
	"errors"
	"sort"
	"time"

	"tinyhouse/internal/domain/shared/daterange"
)

var ErrDatesTaken = errors.New("availability: requested dates overlap an existing booking")

// BookingsIndex is the sparse set of reserved days for one listing,
// keyed year -> month -> day. A day key exists only while some booking covers it.
//
// Methods never mutate the receiver; Merge and Release return a new index so a
// value read from the store can be used as the compare-and-swap precondition.
type BookingsIndex map[int]map[time.Month]map[int]bool

func NewIndex() BookingsIndex {
	return BookingsIndex{}
}

// Has reports whether day is reserved.
func (idx BookingsIndex) Has(day time.Time) bool {
	day = daterange.Day(day)
	months, ok := idx[day.Year()]
	if !ok {
		return false
	}
	days, ok := months[day.Month()]
	if !ok {
		return false
	}
	return days[day.Day()]
}

// HasConflict reports whether any day in [checkIn, checkOut) is already reserved.
// An empty range never conflicts.
func (idx BookingsIndex) HasConflict(r daterange.DateRange) bool {
	conflict := false
	r.Each(func(day time.Time) bool {
		if idx.Has(day) {
			conflict = true
			return false
		}
		return true
	})
	return conflict
}

// Merge returns a copy of idx with every day of r marked.
func (idx BookingsIndex) Merge(r daterange.DateRange) BookingsIndex {
	out := idx.Clone()
	r.Each(func(day time.Time) bool {
		months, ok := out[day.Year()]
		if !ok {
			months = map[time.Month]map[int]bool{}
			out[day.Year()] = months
		}
		days, ok := months[day.Month()]
		if !ok {
			days = map[int]bool{}
			months[day.Month()] = days
		}
		days[day.Day()] = true
		return true
	})
	return out
}

// Reserve is the check-then-merge unit: it fails with ErrDatesTaken when r is
// not free and otherwise returns the merged index.
func (idx BookingsIndex) Reserve(r daterange.DateRange) (BookingsIndex, error) {
	if idx.HasConflict(r) {
		return nil, ErrDatesTaken
	}
	return idx.Merge(r), nil
}

// Release returns a copy of idx with the days of r unmarked. Buckets left
// empty are dropped so the invariant on key presence holds.
func (idx BookingsIndex) Release(r daterange.DateRange) BookingsIndex {
	out := idx.Clone()
	r.Each(func(day time.Time) bool {
		months, ok := out[day.Year()]
		if !ok {
			return true
		}
		days, ok := months[day.Month()]
		if !ok {
			return true
		}
		delete(days, day.Day())
		if len(days) == 0 {
			delete(months, day.Month())
		}
		if len(months) == 0 {
			delete(out, day.Year())
		}
		return true
	})
	return out
}

func (idx BookingsIndex) Clone() BookingsIndex {
	out := make(BookingsIndex, len(idx))
	for y, months := range idx {
		m := make(map[time.Month]map[int]bool, len(months))
		for mo, days := range months {
			d := make(map[int]bool, len(days))
			for day, v := range days {
				if v {
					d[day] = true
				}
			}
			if len(d) > 0 {
				m[mo] = d
			}
		}
		if len(m) > 0 {
			out[y] = m
		}
	}
	return out
}

// Len counts reserved days.
func (idx BookingsIndex) Len() int {
	n := 0
	for _, months := range idx {
		for _, days := range months {
			for _, v := range days {
				if v {
					n++
				}
			}
		}
	}
	return n
}

// Dates lists reserved days in ascending order.
func (idx BookingsIndex) Dates() []time.Time {
	out := make([]time.Time, 0, idx.Len())
	for y, months := range idx {
		for mo, days := range months {
			for d, v := range days {
				if v {
					out = append(out, time.Date(y, mo, d, 0, 0, 0, 0, time.UTC))
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Equal reports whether both indexes mark the same days.
func (idx BookingsIndex) Equal(other BookingsIndex) bool {
	if idx.Len() != other.Len() {
		return false
	}
	for _, day := range idx.Dates() {
		if !other.Has(day) {
			return false
		}
	}
	return true
}
