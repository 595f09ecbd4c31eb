package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	domainavailability "tinyhouse/internal/domain/availability"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/paging"
	domainuser "tinyhouse/internal/domain/user"
)

func TestMapViewerJSON(t *testing.T) {
	anon, _ := json.Marshal(MapViewer(domainuser.Anonymous()))
	if string(anon) != `{"didRequest":true}` {
		t.Fatalf("anonymous viewer = %s", anon)
	}
	full, _ := json.Marshal(MapViewer(domainuser.Viewer{ID: "g-1", Token: "t", Avatar: "a", HasWallet: true, DidRequest: true}))
	if string(full) != `{"id":"g-1","token":"t","avatar":"a","hasWallet":true,"didRequest":true}` {
		t.Fatalf("viewer = %s", full)
	}
}

func TestMapUserDetailHidesPrivateFields(t *testing.T) {
	u := &domainuser.User{ID: "g-1", Name: "Ann", Income: 5000}
	bookings := &paging.Page[BookingView]{Total: 1, Result: []BookingView{{ID: "b-1"}}}

	hidden := MapUserDetail(u, false, bookings, paging.Page[ListingSummary]{})
	raw, _ := json.Marshal(hidden)
	if !strings.Contains(string(raw), `"income":null`) || !strings.Contains(string(raw), `"bookings":null`) {
		t.Fatalf("unauthorized detail = %s", raw)
	}

	shown := MapUserDetail(u, true, bookings, paging.Page[ListingSummary]{})
	if shown.Income == nil || *shown.Income != 5000 || shown.Bookings == nil {
		t.Fatalf("authorized detail = %+v", shown)
	}
}

func TestMapListingDetail(t *testing.T) {
	r, _ := daterange.Parse("2024-06-10", "2024-06-11")
	l := &domainlistings.Listing{
		ID:        "l-1",
		Host:      "g-host",
		Index:     domainavailability.NewIndex().Merge(r),
		Location:  domainlistings.Location{Country: "Canada", Admin: "Ontario", City: "Toronto"},
		CreatedAt: time.Now(),
	}
	bookings := &paging.Page[BookingView]{Total: 1}

	guest := MapListingDetail(l, nil, false, bookings)
	if guest.Bookings != nil || guest.Authorized {
		t.Fatalf("guest detail = %+v", guest)
	}
	if guest.Host.ID != "g-host" {
		t.Errorf("host id = %q", guest.Host.ID)
	}
	raw, _ := json.Marshal(guest)
	if !strings.Contains(string(raw), `"bookingsIndex":{"2024":{"6":{"10":true}}}`) {
		t.Fatalf("bookings index json = %s", raw)
	}

	host := MapListingDetail(l, &domainuser.User{ID: "g-host", Name: "Hal"}, true, bookings)
	if host.Bookings == nil || host.Host.Name != "Hal" {
		t.Fatalf("host detail = %+v", host)
	}
}
