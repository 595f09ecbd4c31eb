// Package profile builds the user detail with field-level visibility.
package profile

import (
	"context"
	"errors"

	"tinyhouse/internal/app/apperr"
	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/services/authz"
	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/paging"
	domainuser "tinyhouse/internal/domain/user"
)

type Service struct {
	Users    domainuser.Repository
	Listings domainlistings.Repository
	Bookings domainbooking.Repository
}

type GetParams struct {
	Viewer       domainuser.Viewer
	ID           domainuser.ID
	BookingsPage int
	ListingsPage int
	Limit        int
}

// Get returns the user. Income and bookings are only read when the viewer is
// the user.
func (s *Service) Get(ctx context.Context, params GetParams) (dto.UserDetail, error) {
	const op = "profile.Get"
	if s.Users == nil || s.Listings == nil || s.Bookings == nil {
		return dto.UserDetail{}, errors.New("profile: repositories required")
	}
	u, err := s.Users.ByID(ctx, params.ID)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return dto.UserDetail{}, apperr.NotFound(op, err)
		}
		return dto.UserDetail{}, apperr.Store(op, err)
	}
	listings, err := s.Listings.ByIDs(ctx, u.Listings, paging.New(params.ListingsPage, params.Limit))
	if err != nil {
		return dto.UserDetail{}, apperr.Store(op, err)
	}
	authorized := authz.OwnsUser(params.Viewer, u.ID)
	var bookings *paging.Page[dto.BookingView]
	if authorized {
		page, err := s.Bookings.ByIDs(ctx, u.Bookings, paging.New(params.BookingsPage, params.Limit))
		if err != nil {
			return dto.UserDetail{}, apperr.Store(op, err)
		}
		mapped := dto.MapBookings(page)
		bookings = &mapped
	}
	return dto.MapUserDetail(u, authorized, bookings, dto.MapListingSummaries(listings)), nil
}
