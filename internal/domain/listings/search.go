package listings

import (
	"strings"

	"tinyhouse/internal/domain/shared/paging"
)

// Sort is a supported catalog ordering. The zero value keeps store order.
type Sort string

const (
	SortNone           Sort = ""
	SortPriceLowToHigh Sort = "PRICE_LOW_TO_HIGH"
	SortPriceHighToLow Sort = "PRICE_HIGH_TO_LOW"
)

func ParseSort(raw string) Sort {
	switch Sort(strings.ToUpper(strings.TrimSpace(raw))) {
	case SortPriceLowToHigh:
		return SortPriceLowToHigh
	case SortPriceHighToLow:
		return SortPriceHighToLow
	}
	return SortNone
}

// SearchParams narrow a catalog scan. Empty location fields do not filter.
type SearchParams struct {
	Country string
	Admin   string
	City    string
	Sort    Sort
	Window  paging.Window
}

// Normalized returns a trimmed copy with a valid window.
func (p SearchParams) Normalized() SearchParams {
	out := p
	out.Country = strings.TrimSpace(out.Country)
	out.Admin = strings.TrimSpace(out.Admin)
	out.City = strings.TrimSpace(out.City)
	out.Sort = ParseSort(string(out.Sort))
	out.Window = paging.New(out.Window.Page, out.Window.Limit)
	return out
}

// Matches applies the location filter to l. Store backends that cannot push
// the filter down use this.
func (p SearchParams) Matches(l *Listing) bool {
	if p.Country != "" && !strings.EqualFold(l.Location.Country, p.Country) {
		return false
	}
	if p.Admin != "" && !strings.EqualFold(l.Location.Admin, p.Admin) {
		return false
	}
	if p.City != "" && !strings.EqualFold(l.Location.City, p.City) {
		return false
	}
	return true
}
