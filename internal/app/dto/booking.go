package dto

import (
	domainbooking "tinyhouse/internal/domain/booking"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/paging"
)

type BookingView struct {
	ID       string `json:"id"`
	Listing  string `json:"listing"`
	Tenant   string `json:"tenant"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Total    int64  `json:"total"`
}

func MapBooking(b *domainbooking.Booking) BookingView {
	if b == nil {
		return BookingView{}
	}
	return BookingView{
		ID:       string(b.ID),
		Listing:  string(b.ListingID),
		Tenant:   string(b.TenantID),
		CheckIn:  b.Range.CheckIn.Format(daterange.Layout),
		CheckOut: b.Range.CheckOut.Format(daterange.Layout),
		Total:    b.Total,
	}
}

func MapBookings(page paging.Page[*domainbooking.Booking]) paging.Page[BookingView] {
	out := paging.Page[BookingView]{Total: page.Total, Result: make([]BookingView, 0, len(page.Result))}
	for _, b := range page.Result {
		out.Result = append(out.Result, MapBooking(b))
	}
	return out
}
