// Package catalog serves listing reads: the paginated query with optional
// geocoded location filtering and the per-viewer listing detail.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"tinyhouse/internal/app/apperr"
	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/services/authz"
	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/paging"
	domainuser "tinyhouse/internal/domain/user"
)

type Geocoder interface {
	Geocode(ctx context.Context, address string) (domainlistings.Location, error)
}

type Service struct {
	Listings domainlistings.Repository
	Users    domainuser.Repository
	Bookings domainbooking.Repository
	Geocoder Geocoder
	Logger   *slog.Logger
}

type ListParams struct {
	Location string
	Sort     domainlistings.Sort
	Page     int
	Limit    int
}

// List runs the catalog query. Geocoding problems never fail the query; they
// only drop the location filter.
func (s *Service) List(ctx context.Context, params ListParams) (dto.ListingsPage, error) {
	if s.Listings == nil {
		return dto.ListingsPage{}, errors.New("catalog: listing repository required")
	}
	search := domainlistings.SearchParams{
		Sort:   params.Sort,
		Window: paging.New(params.Page, params.Limit),
	}
	region := ""
	if text := strings.TrimSpace(params.Location); text != "" {
		if loc, ok := s.resolve(ctx, text); ok {
			search.Country = loc.Country
			search.Admin = loc.Admin
			search.City = loc.City
			region = loc.Label()
		}
	}
	page, err := s.Listings.Search(ctx, search)
	if err != nil {
		return dto.ListingsPage{}, apperr.Store("catalog.List", err)
	}
	summaries := dto.MapListingSummaries(page)
	return dto.ListingsPage{Region: region, Total: summaries.Total, Result: summaries.Result}, nil
}

func (s *Service) resolve(ctx context.Context, text string) (domainlistings.Location, bool) {
	if s.Geocoder == nil {
		s.warn(ctx, "geocoder not configured, location filter skipped", "location", text)
		return domainlistings.Location{}, false
	}
	loc, err := s.Geocoder.Geocode(ctx, text)
	if err != nil {
		s.warn(ctx, "geocoding failed, location filter skipped", "location", text, "error", err)
		return domainlistings.Location{}, false
	}
	if strings.TrimSpace(loc.Country) == "" {
		s.warn(ctx, "geocoding found no country, location filter skipped", "location", text)
		return domainlistings.Location{}, false
	}
	return loc, true
}

type GetParams struct {
	Viewer       domainuser.Viewer
	ID           domainlistings.ID
	BookingsPage int
	Limit        int
}

// Get returns the listing as seen by the viewer. Bookings are read only for
// the host.
func (s *Service) Get(ctx context.Context, params GetParams) (dto.ListingDetail, error) {
	const op = "catalog.Get"
	if s.Listings == nil || s.Users == nil || s.Bookings == nil {
		return dto.ListingDetail{}, errors.New("catalog: repositories required")
	}
	l, err := s.Listings.ByID(ctx, params.ID)
	if err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			return dto.ListingDetail{}, apperr.NotFound(op, err)
		}
		return dto.ListingDetail{}, apperr.Store(op, err)
	}
	host, err := s.Users.ByID(ctx, l.Host)
	if err != nil && !errors.Is(err, domainuser.ErrNotFound) {
		return dto.ListingDetail{}, apperr.Store(op, err)
	}
	authorized := authz.HostsListing(params.Viewer, l)
	var bookings *paging.Page[dto.BookingView]
	if authorized {
		page, err := s.Bookings.ByIDs(ctx, l.Bookings, paging.New(params.BookingsPage, params.Limit))
		if err != nil {
			return dto.ListingDetail{}, apperr.Store(op, err)
		}
		mapped := dto.MapBookings(page)
		bookings = &mapped
	}
	return dto.MapListingDetail(l, host, authorized, bookings), nil
}

func (s *Service) warn(ctx context.Context, msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.WarnContext(ctx, msg, args...)
	}
}
