package listings

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validParams() CreateParams {
	return CreateParams{
		ID:          "l-1",
		Host:        "g-host",
		Title:       "Cozy cabin",
		Description: "Wood stove and a lake view",
		Image:       "https://img/1.png",
		Type:        TypeHouse,
		Address:     "1 Lake Rd",
		Location:    Location{Country: "Canada", Admin: "Ontario", City: "Toronto"},
		Price:       12000,
		NumOfGuests: 4,
		Now:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewListing(t *testing.T) {
	l, err := NewListing(validParams())
	if err != nil {
		t.Fatalf("NewListing() error = %v", err)
	}
	if l.Index == nil || l.Index.Len() != 0 {
		t.Errorf("new listing index = %v, want empty", l.Index)
	}
	if l.IndexVersion != 0 || len(l.Bookings) != 0 {
		t.Errorf("new listing = %+v", l)
	}
}

func TestNewListingValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateParams)
		want   error
	}{
		{"no host", func(p *CreateParams) { p.Host = "" }, ErrHostRequired},
		{"long title", func(p *CreateParams) { p.Title = strings.Repeat("x", MaxTitleLength+1) }, ErrTitleLength},
		{"blank description", func(p *CreateParams) { p.Description = "  " }, ErrDescriptionLength},
		{"bad type", func(p *CreateParams) { p.Type = "CASTLE" }, ErrInvalidType},
		{"zero price", func(p *CreateParams) { p.Price = 0 }, ErrInvalidPrice},
		{"no guests", func(p *CreateParams) { p.NumOfGuests = 0 }, ErrGuestsLimit},
		{"no city", func(p *CreateParams) { p.Location.City = "" }, ErrAddressRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			if _, err := NewListing(p); !errors.Is(err, tt.want) {
				t.Fatalf("NewListing() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLocationLabel(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{Country: "Canada", Admin: "Ontario", City: "Toronto"}, "Toronto, Ontario, Canada"},
		{Location{Country: "Canada", Admin: "Ontario"}, "Ontario, Canada"},
		{Location{Country: "Monaco", City: "Monaco"}, "Monaco, Monaco"},
		{Location{Country: "Canada"}, "Canada"},
	}
	for _, tt := range tests {
		if got := tt.loc.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if typ, err := ParseType(" apartment "); err != nil || typ != TypeApartment {
		t.Errorf("ParseType() = %q, %v", typ, err)
	}
	if ParseSort("price_high_to_low") != SortPriceHighToLow {
		t.Error("ParseSort should be case-insensitive")
	}
	if ParseSort("rating") != SortNone {
		t.Error("unknown sort should keep store order")
	}
}

func TestSearchParamsMatches(t *testing.T) {
	l, _ := NewListing(validParams())
	if !(SearchParams{Country: "canada", City: "TORONTO"}).Matches(l) {
		t.Error("location match should ignore case")
	}
	if (SearchParams{Country: "Canada", City: "Ottawa"}).Matches(l) {
		t.Error("city filter should exclude other cities")
	}
	if !(SearchParams{}).Matches(l) {
		t.Error("empty filter should match everything")
	}
}
