package dto

import (
	"tinyhouse/internal/domain/shared/paging"
	domainuser "tinyhouse/internal/domain/user"
)

// UserDetail hides income and bookings (null) unless the viewer is the user.
type UserDetail struct {
	ID         string                      `json:"id"`
	Name       string                      `json:"name"`
	Avatar     string                      `json:"avatar"`
	Contact    string                      `json:"contact"`
	HasWallet  bool                        `json:"hasWallet"`
	Income     *int64                      `json:"income"`
	Bookings   *paging.Page[BookingView]   `json:"bookings"`
	Listings   paging.Page[ListingSummary] `json:"listings"`
	Authorized bool                        `json:"authorized"`
}

func MapUserDetail(u *domainuser.User, authorized bool, bookings *paging.Page[BookingView], listings paging.Page[ListingSummary]) UserDetail {
	detail := UserDetail{
		ID:         string(u.ID),
		Name:       u.Name,
		Avatar:     u.Avatar,
		Contact:    u.Contact,
		HasWallet:  u.HasWallet(),
		Listings:   listings,
		Authorized: authorized,
	}
	if authorized {
		income := u.Income
		detail.Income = &income
		detail.Bookings = bookings
	}
	return detail
}
