package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/paging"
)

var ErrDuplicateID = errors.New("memory: duplicate id")

// ListingRepository keeps listings in insertion order, which plays the role
// of the store-native order for unsorted scans.
type ListingRepository struct {
	mu    sync.RWMutex
	order []domainlistings.ID
	items map[domainlistings.ID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlistings.ID]*domainlistings.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *ListingRepository) ByIDs(ctx context.Context, ids []string, w paging.Window) (paging.Page[*domainlistings.Listing], error) {
	wanted := make(map[domainlistings.ID]struct{}, len(ids))
	for _, id := range ids {
		wanted[domainlistings.ID(id)] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainlistings.Listing, 0, len(ids))
	for _, id := range r.order {
		if _, ok := wanted[id]; ok {
			matches = append(matches, r.items[id])
		}
	}
	return clonePage(matches, w), nil
}

func (r *ListingRepository) Insert(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[listing.ID]; ok {
		return ErrDuplicateID
	}
	r.items[listing.ID] = listing.Clone()
	r.order = append(r.order, listing.ID)
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (paging.Page[*domainlistings.Listing], error) {
	opts := params.Normalized()
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*domainlistings.Listing, 0, len(r.order))
	for _, id := range r.order {
		if err := ctx.Err(); err != nil {
			return paging.Page[*domainlistings.Listing]{}, err
		}
		l := r.items[id]
		if opts.Matches(l) {
			matches = append(matches, l)
		}
	}
	switch opts.Sort {
	case domainlistings.SortPriceLowToHigh:
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Price < matches[j].Price })
	case domainlistings.SortPriceHighToLow:
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Price > matches[j].Price })
	}
	return clonePage(matches, opts.Window), nil
}

// CommitIndex is the compare-and-swap on IndexVersion; the lock makes the
// version check and the write one step.
func (r *ListingRepository) CommitIndex(ctx context.Context, update domainlistings.IndexUpdate) (*domainlistings.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[update.ID]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	if l.IndexVersion != update.Version {
		return nil, domainlistings.ErrConcurrentUpdate
	}
	l.Index = update.Index.Clone()
	l.IndexVersion++
	if update.AddBooking != "" {
		l.Bookings = append(l.Bookings, update.AddBooking)
	}
	if update.RemoveBooking != "" {
		l.Bookings = removeString(l.Bookings, update.RemoveBooking)
	}
	return l.Clone(), nil
}

func clonePage(items []*domainlistings.Listing, w paging.Window) paging.Page[*domainlistings.Listing] {
	page := paging.Of(items, w)
	for i, l := range page.Result {
		page.Result[i] = l.Clone()
	}
	return page
}

func removeString(values []string, target string) []string {
	out := values[:0]
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
