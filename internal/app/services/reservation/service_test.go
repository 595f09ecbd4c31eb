package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tinyhouse/internal/app/apperr"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	domainuser "tinyhouse/internal/domain/user"
	"tinyhouse/internal/infra/storage/memory"
)

type fakePayments struct {
	chargeFn func(ctx context.Context, params ChargeParams) (string, error)
}

func (f *fakePayments) Charge(ctx context.Context, params ChargeParams) (string, error) {
	if f.chargeFn == nil {
		return "ch_1", nil
	}
	return f.chargeFn(ctx, params)
}

type fixture struct {
	svc      *Service
	users    *memory.UserRepository
	listings *memory.ListingRepository
	bookings *memory.BookingRepository
	outbox   *memory.Outbox
	payments *fakePayments
}

var clock = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    memory.NewUserRepository(),
		listings: memory.NewListingRepository(),
		bookings: memory.NewBookingRepository(),
		outbox:   memory.NewOutbox(),
		payments: &fakePayments{},
	}
	f.users.Put(&domainuser.User{ID: "g-host", Name: "Hal", WalletID: "acct_host"})
	f.users.Put(&domainuser.User{ID: "g-tenant", Name: "Tia"})
	l, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:          "l-x",
		Host:        "g-host",
		Title:       "Loft",
		Description: "Bright loft",
		Type:        domainlistings.TypeApartment,
		Location:    domainlistings.Location{Country: "Canada", Admin: "Ontario", City: "Toronto"},
		Price:       10000,
		NumOfGuests: 2,
		Now:         clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.listings.Insert(context.Background(), l); err != nil {
		t.Fatal(err)
	}
	var seq atomic.Int64
	f.svc = &Service{
		Listings: f.listings,
		Bookings: f.bookings,
		Users:    f.users,
		Payments: f.payments,
		Outbox:   f.outbox,
		NewID:    func() string { return fmt.Sprintf("b-%d", seq.Add(1)) },
		Now:      func() time.Time { return clock },
	}
	return f
}

func tenant() domainuser.Viewer {
	return domainuser.Viewer{ID: "g-tenant", Token: "tok", DidRequest: true}
}

func book(f *fixture, v domainuser.Viewer, in, out string) (*Result, error) {
	return f.svc.Create(context.Background(), CreateParams{Viewer: v, ListingID: "l-x", Source: "tok_visa", CheckIn: in, CheckOut: out})
}

func TestCreateThenOverlapConflicts(t *testing.T) {
	f := newFixture(t)

	res, err := book(f, tenant(), "2024-06-10", "2024-06-12")
	if err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	if res.Booking.Total != 20000 {
		t.Errorf("total = %d, want 20000", res.Booking.Total)
	}

	_, err = book(f, tenant(), "2024-06-11", "2024-06-13")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("second Create() error = %v, want conflict", err)
	}

	l, _ := f.listings.ByID(context.Background(), "l-x")
	if l.Index.Len() != 2 || len(l.Bookings) != 1 || l.IndexVersion != 1 {
		t.Fatalf("listing after conflict = %+v", l)
	}
	host, _ := f.users.ByID(context.Background(), "g-host")
	if host.Income != 20000 {
		t.Errorf("host income = %d, want 20000", host.Income)
	}
	guest, _ := f.users.ByID(context.Background(), "g-tenant")
	if len(guest.Bookings) != 1 || guest.Bookings[0] != string(res.Booking.ID) {
		t.Errorf("tenant bookings = %v", guest.Bookings)
	}

	names := map[string]int{}
	for _, rec := range f.outbox.Records() {
		names[rec.Name]++
	}
	if names["booking.created"] != 1 || names["availability.reserved"] != 1 || names["availability.overbooking_prevented"] != 1 {
		t.Errorf("outbox events = %v", names)
	}
}

func TestDisjointRangesBothSucceed(t *testing.T) {
	f := newFixture(t)
	r1, _ := daterange.Parse("2024-06-10", "2024-06-12")
	r2, _ := daterange.Parse("2024-06-12", "2024-06-15")

	if _, err := book(f, tenant(), "2024-06-10", "2024-06-12"); err != nil {
		t.Fatal(err)
	}
	if _, err := book(f, tenant(), "2024-06-12", "2024-06-15"); err != nil {
		t.Fatalf("back-to-back stay should succeed: %v", err)
	}
	l, _ := f.listings.ByID(context.Background(), "l-x")
	if l.Index.Len() != r1.Nights()+r2.Nights() {
		t.Fatalf("index covers %d days, want %d", l.Index.Len(), r1.Nights()+r2.Nights())
	}
	for _, d := range append(r1.Days(), r2.Days()...) {
		if !l.Index.Has(d) {
			t.Errorf("day %s is not marked", d.Format(daterange.Layout))
		}
	}
	if f.bookings.Len() != 2 {
		t.Errorf("bookings = %d, want 2", f.bookings.Len())
	}
}

func TestConcurrentOverlappingReservations(t *testing.T) {
	f := newFixture(t)
	const racers = 8

	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			in := fmt.Sprintf("2024-06-%02d", 10+i%2)
			_, err := book(f, tenant(), in, "2024-06-14")
			switch {
			case err == nil:
				wins.Add(1)
			case apperr.KindOf(err) == apperr.KindConflict:
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 || conflicts.Load() != racers-1 {
		t.Fatalf("wins = %d, conflicts = %d", wins.Load(), conflicts.Load())
	}
	l, _ := f.listings.ByID(context.Background(), "l-x")
	if len(l.Bookings) != 1 {
		t.Fatalf("listing bookings = %v", l.Bookings)
	}
}

func TestConcurrentDisjointReservations(t *testing.T) {
	f := newFixture(t)
	const racers = 6

	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := fmt.Sprintf("2024-07-%02d", 1+i*2)
			out := fmt.Sprintf("2024-07-%02d", 3+i*2)
			_, err := book(f, tenant(), in, out)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("disjoint reservation failed: %v", err)
		}
	}
	l, _ := f.listings.ByID(context.Background(), "l-x")
	if l.Index.Len() != racers*2 || len(l.Bookings) != racers {
		t.Fatalf("index days = %d, bookings = %d", l.Index.Len(), len(l.Bookings))
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		viewer domainuser.Viewer
		in     string
		out    string
		want   apperr.Kind
	}{
		{"anonymous", domainuser.Anonymous(), "2024-06-10", "2024-06-12", apperr.KindNotAuthenticated},
		{"same day", tenant(), "2024-06-10", "2024-06-10", apperr.KindValidation},
		{"inverted", tenant(), "2024-06-12", "2024-06-10", apperr.KindValidation},
		{"bad format", tenant(), "06/10/2024", "2024-06-12", apperr.KindValidation},
		{"past", tenant(), "2024-05-30", "2024-06-02", apperr.KindValidation},
		{"too long", tenant(), "2024-06-10", "2024-10-10", apperr.KindValidation},
		{"own listing", domainuser.Viewer{ID: "g-host", DidRequest: true}, "2024-06-10", "2024-06-12", apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := book(f, tt.viewer, tt.in, tt.out)
			if apperr.KindOf(err) != tt.want {
				t.Fatalf("Create() error = %v, want kind %s", err, tt.want)
			}
			l, _ := f.listings.ByID(context.Background(), "l-x")
			if l.Index.Len() != 0 {
				t.Fatal("rejected reservation must not touch the index")
			}
		})
	}
}

func TestCreateUnknownListing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateParams{Viewer: tenant(), ListingID: "missing", CheckIn: "2024-06-10", CheckOut: "2024-06-12"})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestCreateRequiresHostWallet(t *testing.T) {
	f := newFixture(t)
	f.users.Put(&domainuser.User{ID: "g-host", Name: "Hal"})
	_, err := book(f, tenant(), "2024-06-10", "2024-06-12")
	if !errors.Is(err, ErrNoHostWallet) {
		t.Fatalf("error = %v, want ErrNoHostWallet", err)
	}
}

func TestChargeFailureReleasesDates(t *testing.T) {
	f := newFixture(t)
	f.payments.chargeFn = func(ctx context.Context, p ChargeParams) (string, error) {
		if p.Destination != "acct_host" || p.Amount != 20000 || p.Source != "tok_visa" {
			t.Errorf("charge params = %+v", p)
		}
		return "", errors.New("card_declined")
	}

	_, err := book(f, tenant(), "2024-06-10", "2024-06-12")
	if apperr.KindOf(err) != apperr.KindProvider {
		t.Fatalf("error = %v, want provider failure", err)
	}
	l, _ := f.listings.ByID(context.Background(), "l-x")
	if l.Index.Len() != 0 || len(l.Bookings) != 0 {
		t.Fatalf("dates not released: %+v", l)
	}
	if f.bookings.Len() != 0 {
		t.Fatal("no booking may be stored after a failed charge")
	}

	f.payments.chargeFn = nil
	if _, err := book(f, tenant(), "2024-06-10", "2024-06-12"); err != nil {
		t.Fatalf("released dates should be bookable again: %v", err)
	}
}

type racingListings struct {
	*memory.ListingRepository
	once sync.Once
	race func()
}

func (r *racingListings) CommitIndex(ctx context.Context, u domainlistings.IndexUpdate) (*domainlistings.Listing, error) {
	r.once.Do(r.race)
	return r.ListingRepository.CommitIndex(ctx, u)
}

func TestLoserRechecksAgainstWinner(t *testing.T) {
	f := newFixture(t)
	winner := &Service{
		Listings: f.listings,
		Bookings: f.bookings,
		Users:    f.users,
		Payments: f.payments,
		NewID:    func() string { return "b-winner" },
		Now:      func() time.Time { return clock },
	}
	racing := &racingListings{ListingRepository: f.listings}
	racing.race = func() {
		if _, err := winner.Create(context.Background(), CreateParams{Viewer: tenant(), ListingID: "l-x", CheckIn: "2024-06-11", CheckOut: "2024-06-13"}); err != nil {
			t.Errorf("winner failed: %v", err)
		}
	}
	f.svc.Listings = racing

	_, err := book(f, tenant(), "2024-06-10", "2024-06-12")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("loser error = %v, want conflict after re-check", err)
	}
}
