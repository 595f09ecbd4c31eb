package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tinyhouse/internal/app/apperr"
	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	domainuser "tinyhouse/internal/domain/user"
	"tinyhouse/internal/infra/storage/memory"
)

type fakeGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (domainlistings.Location, error)
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (domainlistings.Location, error) {
	return f.geocodeFn(ctx, address)
}

func seed(t *testing.T, repo *memory.ListingRepository, id string, price int64, loc domainlistings.Location) {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:          domainlistings.ID(id),
		Host:        "g-host",
		Title:       "Listing " + id,
		Description: "Somewhere nice",
		Type:        domainlistings.TypeHouse,
		Location:    loc,
		Price:       price,
		NumOfGuests: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(context.Background(), l); err != nil {
		t.Fatal(err)
	}
}

var toronto = domainlistings.Location{Country: "Canada", Admin: "Ontario", City: "Toronto"}

func TestListPaginationWindow(t *testing.T) {
	repo := memory.NewListingRepository()
	for i := 1; i <= 10; i++ {
		seed(t, repo, fmt.Sprintf("l-%02d", i), int64(i*100), toronto)
	}
	svc := &Service{Listings: repo}

	page, err := svc.List(context.Background(), ListParams{Sort: domainlistings.SortPriceLowToHigh, Page: 2, Limit: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 10 || len(page.Result) != 4 {
		t.Fatalf("total = %d, results = %d", page.Total, len(page.Result))
	}
	if page.Result[0].ID != "l-05" || page.Result[3].ID != "l-08" {
		t.Errorf("window = %s..%s, want l-05..l-08", page.Result[0].ID, page.Result[3].ID)
	}

	first, _ := svc.List(context.Background(), ListParams{Page: 0, Limit: 4})
	if first.Result[0].ID != "l-01" {
		t.Errorf("page 0 should read the first page, got %s", first.Result[0].ID)
	}
}

func TestListFiltersByGeocodedLocation(t *testing.T) {
	repo := memory.NewListingRepository()
	seed(t, repo, "l-tor", 100, toronto)
	seed(t, repo, "l-ott", 100, domainlistings.Location{Country: "Canada", Admin: "Ontario", City: "Ottawa"})
	seed(t, repo, "l-par", 100, domainlistings.Location{Country: "France", Admin: "Ile-de-France", City: "Paris"})

	svc := &Service{Listings: repo, Geocoder: &fakeGeocoder{geocodeFn: func(ctx context.Context, address string) (domainlistings.Location, error) {
		if address != "toronto" {
			t.Fatalf("address = %q", address)
		}
		return toronto, nil
	}}}

	page, err := svc.List(context.Background(), ListParams{Location: " toronto ", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Result[0].ID != "l-tor" {
		t.Fatalf("results = %+v", page.Result)
	}
	if page.Region != "Toronto, Ontario, Canada" {
		t.Errorf("region = %q", page.Region)
	}
}

func TestListGeocodeFallbacks(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, string) (domainlistings.Location, error)
	}{
		{"provider error", func(context.Context, string) (domainlistings.Location, error) {
			return domainlistings.Location{}, errors.New("REQUEST_DENIED")
		}},
		{"no country", func(context.Context, string) (domainlistings.Location, error) {
			return domainlistings.Location{City: "Springfield"}, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewListingRepository()
			seed(t, repo, "l-1", 100, toronto)
			seed(t, repo, "l-2", 100, domainlistings.Location{Country: "France", Admin: "IDF", City: "Paris"})
			svc := &Service{Listings: repo, Geocoder: &fakeGeocoder{geocodeFn: tt.fn}}

			page, err := svc.List(context.Background(), ListParams{Location: "springfield", Limit: 10})
			if err != nil {
				t.Fatalf("List() error = %v, want degraded success", err)
			}
			if page.Total != 2 || page.Region != "" {
				t.Fatalf("page = %+v, want unfiltered", page)
			}
		})
	}
}

func TestGetHidesBookingsFromNonHost(t *testing.T) {
	listings := memory.NewListingRepository()
	users := memory.NewUserRepository()
	bookings := memory.NewBookingRepository()
	seed(t, listings, "l-1", 100, toronto)
	users.Put(&domainuser.User{ID: "g-host", Name: "Hal"})

	r, _ := daterange.Parse("2024-06-10", "2024-06-12")
	b, _ := domainbooking.NewBooking(domainbooking.CreateParams{ID: "b-1", ListingID: "l-1", TenantID: "g-t", Range: r})
	_ = bookings.Insert(context.Background(), b)
	l, _ := listings.ByID(context.Background(), "l-1")
	_, _ = listings.CommitIndex(context.Background(), domainlistings.IndexUpdate{ID: "l-1", Version: l.IndexVersion, Index: l.Index.Merge(r), AddBooking: "b-1"})

	svc := &Service{Listings: listings, Users: users, Bookings: bookings}

	guest, err := svc.Get(context.Background(), GetParams{Viewer: domainuser.Viewer{ID: "g-t", DidRequest: true}, ID: "l-1"})
	if err != nil {
		t.Fatal(err)
	}
	if guest.Authorized || guest.Bookings != nil {
		t.Fatalf("guest sees bookings: %+v", guest)
	}
	if guest.BookingsIndex.Len() != 2 {
		t.Errorf("bookings index should stay public, got %d days", guest.BookingsIndex.Len())
	}

	host, err := svc.Get(context.Background(), GetParams{Viewer: domainuser.Viewer{ID: "g-host", DidRequest: true}, ID: "l-1", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if !host.Authorized || host.Bookings == nil || host.Bookings.Total != 1 || host.Bookings.Result[0].ID != "b-1" {
		t.Fatalf("host detail = %+v", host)
	}

	if _, err := svc.Get(context.Background(), GetParams{ID: "nope"}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("unknown listing error = %v", err)
	}
}
