package dto

import (
	"time"

	domainavailability "tinyhouse/internal/domain/availability"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/paging"
	domainuser "tinyhouse/internal/domain/user"
)

// ListingSummary is the catalog card of a listing.
type ListingSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Image       string `json:"image"`
	Type        string `json:"type"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Price       int64  `json:"price"`
	NumOfGuests int    `json:"numOfGuests"`
}

type HostSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	HasWallet bool   `json:"hasWallet"`
}

// ListingDetail is a listing as seen by one viewer. Bookings is null unless
// the viewer hosts the listing.
type ListingDetail struct {
	ID            string                           `json:"id"`
	Title         string                           `json:"title"`
	Description   string                           `json:"description"`
	Image         string                           `json:"image"`
	Host          HostSummary                      `json:"host"`
	Type          string                           `json:"type"`
	Address       string                           `json:"address"`
	Country       string                           `json:"country"`
	Admin         string                           `json:"admin"`
	City          string                           `json:"city"`
	Price         int64                            `json:"price"`
	NumOfGuests   int                              `json:"numOfGuests"`
	BookingsIndex domainavailability.BookingsIndex `json:"bookingsIndex"`
	Bookings      *paging.Page[BookingView]        `json:"bookings"`
	Authorized    bool                             `json:"authorized"`
	CreatedAt     time.Time                        `json:"createdAt"`
}

// ListingsPage is a catalog query result.
type ListingsPage struct {
	Region string           `json:"region,omitempty"`
	Total  int              `json:"total"`
	Result []ListingSummary `json:"result"`
}

func MapListingSummary(l *domainlistings.Listing) ListingSummary {
	if l == nil {
		return ListingSummary{}
	}
	return ListingSummary{
		ID:          string(l.ID),
		Title:       l.Title,
		Image:       l.Image,
		Type:        string(l.Type),
		Address:     l.Address,
		City:        l.Location.City,
		Price:       l.Price,
		NumOfGuests: l.NumOfGuests,
	}
}

func MapListingSummaries(page paging.Page[*domainlistings.Listing]) paging.Page[ListingSummary] {
	out := paging.Page[ListingSummary]{Total: page.Total, Result: make([]ListingSummary, 0, len(page.Result))}
	for _, l := range page.Result {
		out.Result = append(out.Result, MapListingSummary(l))
	}
	return out
}

func MapHost(u *domainuser.User) HostSummary {
	if u == nil {
		return HostSummary{}
	}
	return HostSummary{ID: string(u.ID), Name: u.Name, Avatar: u.Avatar, HasWallet: u.HasWallet()}
}

// MapListingDetail builds the viewer-specific projection. A nil bookings page
// means the viewer is not allowed to see it.
func MapListingDetail(l *domainlistings.Listing, host *domainuser.User, authorized bool, bookings *paging.Page[BookingView]) ListingDetail {
	index := l.Index
	if index == nil {
		index = domainavailability.NewIndex()
	}
	detail := ListingDetail{
		ID:            string(l.ID),
		Title:         l.Title,
		Description:   l.Description,
		Image:         l.Image,
		Host:          MapHost(host),
		Type:          string(l.Type),
		Address:       l.Address,
		Country:       l.Location.Country,
		Admin:         l.Location.Admin,
		City:          l.Location.City,
		Price:         l.Price,
		NumOfGuests:   l.NumOfGuests,
		BookingsIndex: index,
		Authorized:    authorized,
		CreatedAt:     l.CreatedAt,
	}
	if authorized {
		detail.Bookings = bookings
	}
	if detail.Host.ID == "" {
		detail.Host.ID = string(l.Host)
	}
	return detail
}
