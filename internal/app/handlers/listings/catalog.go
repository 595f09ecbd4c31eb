package listings

import (
	"context"
	"errors"

	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/services/catalog"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

const (
	searchListingsKey = "listings.search"
	getListingKey     = "listings.get"
)

var ErrCatalogRequired = errors.New("listings: catalog service required")

type SearchListingsQuery struct {
	Location string
	Sort     domainlistings.Sort
	Page     int
	Limit    int
}

func (SearchListingsQuery) Key() string { return searchListingsKey }

type SearchListingsHandler struct {
	Catalog *catalog.Service
}

func (h *SearchListingsHandler) Handle(ctx context.Context, q SearchListingsQuery) (dto.ListingsPage, error) {
	if h.Catalog == nil {
		return dto.ListingsPage{}, ErrCatalogRequired
	}
	return h.Catalog.List(ctx, catalog.ListParams{Location: q.Location, Sort: q.Sort, Page: q.Page, Limit: q.Limit})
}

type GetListingQuery struct {
	Viewer       domainuser.Viewer
	ID           domainlistings.ID
	BookingsPage int
	Limit        int
}

func (GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	Catalog *catalog.Service
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.ListingDetail, error) {
	if h.Catalog == nil {
		return dto.ListingDetail{}, ErrCatalogRequired
	}
	return h.Catalog.Get(ctx, catalog.GetParams{Viewer: q.Viewer, ID: q.ID, BookingsPage: q.BookingsPage, Limit: q.Limit})
}

var (
	_ queries.Handler[SearchListingsQuery, dto.ListingsPage] = (*SearchListingsHandler)(nil)
	_ queries.Handler[GetListingQuery, dto.ListingDetail]    = (*GetListingHandler)(nil)
)
