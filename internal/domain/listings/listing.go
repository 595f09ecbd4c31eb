package listings

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"tinyhouse/internal/domain/availability"
	"tinyhouse/internal/domain/shared/paging"
	"tinyhouse/internal/domain/user"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 5000
)

var (
	ErrIDRequired        = errors.New("listings: id is required")
	ErrHostRequired      = errors.New("listings: host is required")
	ErrTitleLength       = errors.New("listings: title must be between 1 and 100 characters")
	ErrDescriptionLength = errors.New("listings: description must be between 1 and 5000 characters")
	ErrInvalidType       = errors.New("listings: type must be APARTMENT or HOUSE")
	ErrInvalidPrice      = errors.New("listings: price must be greater than 0")
	ErrGuestsLimit       = errors.New("listings: number of guests must be at least 1")
	ErrAddressRequired   = errors.New("listings: address must resolve to country, admin and city")
	ErrNotFound          = errors.New("listings: not found")
	ErrConcurrentUpdate  = errors.New("listings: concurrent update detected")
)

type ID string

type Type string

const (
	TypeApartment Type = "APARTMENT"
	TypeHouse     Type = "HOUSE"
)

func ParseType(raw string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(raw))) {
	case TypeApartment:
		return TypeApartment, nil
	case TypeHouse:
		return TypeHouse, nil
	}
	return "", ErrInvalidType
}

// Location is the geocoded form of a free-text address.
type Location struct {
	Country string
	Admin   string
	City    string
}

// Complete reports whether every component is present.
func (l Location) Complete() bool {
	return strings.TrimSpace(l.Country) != "" && strings.TrimSpace(l.Admin) != "" && strings.TrimSpace(l.City) != ""
}

// Label renders "{city}, {admin}, {country}" skipping empty parts.
func (l Location) Label() string {
	var b strings.Builder
	if l.City != "" {
		b.WriteString(l.City)
		b.WriteString(", ")
	}
	if l.Admin != "" {
		b.WriteString(l.Admin)
		b.WriteString(", ")
	}
	b.WriteString(l.Country)
	return b.String()
}

// Listing is a host's rental. IndexVersion increments on every committed
// change to Index.
type Listing struct {
	ID           ID
	Title        string
	Description  string
	Image        string
	Host         user.ID
	Type         Type
	Address      string
	Location     Location
	Price        int64
	NumOfGuests  int
	Bookings     []string
	Index        availability.BookingsIndex
	IndexVersion int64
	CreatedAt    time.Time
}

func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Bookings = append([]string(nil), l.Bookings...)
	cp.Index = l.Index.Clone()
	return &cp
}

type CreateParams struct {
	ID          ID
	Host        user.ID
	Title       string
	Description string
	Image       string
	Type        Type
	Address     string
	Location    Location
	Price       int64
	NumOfGuests int
	Now         time.Time
}

// ValidateContent checks the host-supplied fields. Identity and location are
// checked by NewListing.
func (p CreateParams) ValidateContent() error {
	if strings.TrimSpace(string(p.Host)) == "" {
		return ErrHostRequired
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(p.Title)); n == 0 || n > MaxTitleLength {
		return ErrTitleLength
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(p.Description)); n == 0 || n > MaxDescriptionLength {
		return ErrDescriptionLength
	}
	if p.Type != TypeApartment && p.Type != TypeHouse {
		return ErrInvalidType
	}
	if p.Price <= 0 {
		return ErrInvalidPrice
	}
	if p.NumOfGuests < 1 {
		return ErrGuestsLimit
	}
	return nil
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if err := params.ValidateContent(); err != nil {
		return nil, err
	}
	if !params.Location.Complete() {
		return nil, ErrAddressRequired
	}
	title := strings.TrimSpace(params.Title)
	description := strings.TrimSpace(params.Description)
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Listing{
		ID:          params.ID,
		Title:       title,
		Description: description,
		Image:       strings.TrimSpace(params.Image),
		Host:        params.Host,
		Type:        params.Type,
		Address:     strings.TrimSpace(params.Address),
		Location:    params.Location,
		Price:       params.Price,
		NumOfGuests: params.NumOfGuests,
		Bookings:    []string{},
		Index:       availability.NewIndex(),
		CreatedAt:   now.UTC(),
	}, nil
}

// IndexUpdate replaces a listing's index if its version still equals Version.
// AddBooking and RemoveBooking adjust the bookings list in the same write.
type IndexUpdate struct {
	ID            ID
	Version       int64
	Index         availability.BookingsIndex
	AddBooking    string
	RemoveBooking string
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Listing, error)
	// ByIDs returns the listings among ids in store order, windowed by w.
	ByIDs(ctx context.Context, ids []string, w paging.Window) (paging.Page[*Listing], error)
	Insert(ctx context.Context, listing *Listing) error
	Search(ctx context.Context, params SearchParams) (paging.Page[*Listing], error)
	// CommitIndex applies update atomically and returns the new state, or
	// ErrConcurrentUpdate when the version moved.
	CommitIndex(ctx context.Context, update IndexUpdate) (*Listing, error)
}
