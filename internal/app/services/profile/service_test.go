package profile

import (
	"context"
	"fmt"
	"testing"

	"tinyhouse/internal/app/apperr"
	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	domainuser "tinyhouse/internal/domain/user"
	"tinyhouse/internal/infra/storage/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	users := memory.NewUserRepository()
	listings := memory.NewListingRepository()
	bookings := memory.NewBookingRepository()
	ctx := context.Background()

	var listingIDs []string
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("l-%d", i)
		l, err := domainlistings.NewListing(domainlistings.CreateParams{
			ID:          domainlistings.ID(id),
			Host:        "g-ann",
			Title:       "Place " + id,
			Description: "desc",
			Type:        domainlistings.TypeApartment,
			Location:    domainlistings.Location{Country: "Canada", Admin: "Ontario", City: "Toronto"},
			Price:       100,
			NumOfGuests: 1,
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := listings.Insert(ctx, l); err != nil {
			t.Fatal(err)
		}
		listingIDs = append(listingIDs, id)
	}
	r, _ := daterange.Parse("2024-06-10", "2024-06-12")
	b, _ := domainbooking.NewBooking(domainbooking.CreateParams{ID: "b-1", ListingID: "l-9", TenantID: "g-ann", Range: r, Total: 200})
	if err := bookings.Insert(ctx, b); err != nil {
		t.Fatal(err)
	}
	users.Put(&domainuser.User{ID: "g-ann", Name: "Ann", Income: 4200, Listings: listingIDs, Bookings: []string{"b-1"}})
	return &Service{Users: users, Listings: listings, Bookings: bookings}
}

func TestGetAsOwner(t *testing.T) {
	svc := newService(t)
	detail, err := svc.Get(context.Background(), GetParams{
		Viewer:       domainuser.Viewer{ID: "g-ann", DidRequest: true},
		ID:           "g-ann",
		ListingsPage: 2,
		Limit:        2,
	})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !detail.Authorized || detail.Income == nil || *detail.Income != 4200 {
		t.Fatalf("detail = %+v", detail)
	}
	if detail.Bookings == nil || detail.Bookings.Total != 1 || detail.Bookings.Result[0].CheckIn != "2024-06-10" {
		t.Fatalf("bookings = %+v", detail.Bookings)
	}
	if detail.Listings.Total != 3 || len(detail.Listings.Result) != 1 || detail.Listings.Result[0].ID != "l-3" {
		t.Fatalf("listings page = %+v", detail.Listings)
	}
}

func TestGetAsStranger(t *testing.T) {
	svc := newService(t)
	for _, v := range []domainuser.Viewer{domainuser.Anonymous(), {ID: "g-bob", DidRequest: true}} {
		detail, err := svc.Get(context.Background(), GetParams{Viewer: v, ID: "g-ann"})
		if err != nil {
			t.Fatal(err)
		}
		if detail.Authorized || detail.Income != nil || detail.Bookings != nil {
			t.Fatalf("viewer %q sees private fields: %+v", v.ID, detail)
		}
		if detail.Listings.Total != 3 {
			t.Errorf("listings should be public, total = %d", detail.Listings.Total)
		}
	}
}

func TestGetUnknownUser(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Get(context.Background(), GetParams{ID: "nobody"}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("error = %v", err)
	}
}
