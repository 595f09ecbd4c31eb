package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tinyhouse/internal/domain/availability"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/paging"
	domainuser "tinyhouse/internal/domain/user"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingsCollection)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

func (r *ListingRepository) ByIDs(ctx context.Context, ids []string, w paging.Window) (paging.Page[*domainlistings.Listing], error) {
	if len(ids) == 0 {
		return paging.Page[*domainlistings.Listing]{Result: []*domainlistings.Listing{}}, nil
	}
	return r.page(ctx, bson.M{"_id": bson.M{"$in": ids}}, storeOrder, w, nil)
}

func (r *ListingRepository) Insert(ctx context.Context, l *domainlistings.Listing) error {
	_, err := r.col.InsertOne(ctx, newListingDocument(l))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("listing %s: %w", l.ID, err)
	}
	return err
}

// Search pushes the location filter and sort down to the server. Location
// matches ignore case.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (paging.Page[*domainlistings.Listing], error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.Country != "" {
		filter["country"] = opts.Country
	}
	if opts.Admin != "" {
		filter["admin"] = opts.Admin
	}
	if opts.City != "" {
		filter["city"] = opts.City
	}
	order := storeOrder
	switch opts.Sort {
	case domainlistings.SortPriceLowToHigh:
		order = bson.D{{Key: "price", Value: 1}, {Key: "created_at", Value: 1}}
	case domainlistings.SortPriceHighToLow:
		order = bson.D{{Key: "price", Value: -1}, {Key: "created_at", Value: 1}}
	}
	return r.page(ctx, filter, order, opts.Window, caseInsensitive)
}

// CommitIndex writes the new index only if index_version still matches, so
// a concurrent reservation makes this update match nothing.
func (r *ListingRepository) CommitIndex(ctx context.Context, update domainlistings.IndexUpdate) (*domainlistings.Listing, error) {
	change := bson.M{
		"$set": bson.M{"bookings_index": encodeIndex(update.Index)},
		"$inc": bson.M{"index_version": 1},
	}
	switch {
	case update.AddBooking != "" && update.RemoveBooking != "":
		return nil, errors.New("mongo: cannot add and remove a booking in one commit")
	case update.AddBooking != "":
		change["$push"] = bson.M{"bookings": update.AddBooking}
	case update.RemoveBooking != "":
		change["$pull"] = bson.M{"bookings": update.RemoveBooking}
	}

	filter := bson.M{"_id": string(update.ID), "index_version": update.Version}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc listingDocument
	err := r.col.FindOneAndUpdate(ctx, filter, change, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": string(update.ID)})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domainlistings.ErrNotFound
	}
	return nil, domainlistings.ErrConcurrentUpdate
}

var storeOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func (r *ListingRepository) page(ctx context.Context, filter bson.M, order bson.D, w paging.Window, collation *options.Collation) (paging.Page[*domainlistings.Listing], error) {
	countOpts := options.Count()
	findOpts := options.Find().SetSort(order).SetSkip(int64(w.Skip())).SetLimit(int64(w.Limit))
	if collation != nil {
		countOpts.SetCollation(collation)
		findOpts.SetCollation(collation)
	}
	total, err := r.col.CountDocuments(ctx, filter, countOpts)
	if err != nil {
		return paging.Page[*domainlistings.Listing]{}, err
	}
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return paging.Page[*domainlistings.Listing]{}, err
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return paging.Page[*domainlistings.Listing]{}, err
	}
	out := make([]*domainlistings.Listing, 0, len(docs))
	for _, d := range docs {
		l, err := d.toDomain()
		if err != nil {
			return paging.Page[*domainlistings.Listing]{}, err
		}
		out = append(out, l)
	}
	return paging.Page[*domainlistings.Listing]{Total: int(total), Result: out}, nil
}

type listingDocument struct {
	ID            string                                `bson:"_id"`
	Title         string                                `bson:"title"`
	Description   string                                `bson:"description"`
	Image         string                                `bson:"image"`
	Host          string                                `bson:"host"`
	Type          string                                `bson:"type"`
	Address       string                                `bson:"address"`
	Country       string                                `bson:"country"`
	Admin         string                                `bson:"admin"`
	City          string                                `bson:"city"`
	Price         int64                                 `bson:"price"`
	NumOfGuests   int                                   `bson:"num_of_guests"`
	Bookings      []string                              `bson:"bookings"`
	BookingsIndex map[string]map[string]map[string]bool `bson:"bookings_index"`
	IndexVersion  int64                                 `bson:"index_version"`
	CreatedAt     time.Time                             `bson:"created_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:            string(l.ID),
		Title:         l.Title,
		Description:   l.Description,
		Image:         l.Image,
		Host:          string(l.Host),
		Type:          string(l.Type),
		Address:       l.Address,
		Country:       l.Location.Country,
		Admin:         l.Location.Admin,
		City:          l.Location.City,
		Price:         l.Price,
		NumOfGuests:   l.NumOfGuests,
		Bookings:      nonNil(l.Bookings),
		BookingsIndex: encodeIndex(l.Index),
		IndexVersion:  l.IndexVersion,
		CreatedAt:     l.CreatedAt.UTC(),
	}
}

func (d listingDocument) toDomain() (*domainlistings.Listing, error) {
	idx, err := decodeIndex(d.BookingsIndex)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.ID, err)
	}
	return &domainlistings.Listing{
		ID:           domainlistings.ID(d.ID),
		Title:        d.Title,
		Description:  d.Description,
		Image:        d.Image,
		Host:         domainuser.ID(d.Host),
		Type:         domainlistings.Type(d.Type),
		Address:      d.Address,
		Location:     domainlistings.Location{Country: d.Country, Admin: d.Admin, City: d.City},
		Price:        d.Price,
		NumOfGuests:  d.NumOfGuests,
		Bookings:     nonNil(d.Bookings),
		Index:        idx,
		IndexVersion: d.IndexVersion,
		CreatedAt:    d.CreatedAt.UTC(),
	}, nil
}

// encodeIndex stores the index with string keys: year, 1-based month, day.
func encodeIndex(idx availability.BookingsIndex) map[string]map[string]map[string]bool {
	out := make(map[string]map[string]map[string]bool, len(idx))
	for year, months := range idx {
		ym := make(map[string]map[string]bool, len(months))
		for month, days := range months {
			md := make(map[string]bool, len(days))
			for day, set := range days {
				if set {
					md[strconv.Itoa(day)] = true
				}
			}
			if len(md) > 0 {
				ym[strconv.Itoa(int(month))] = md
			}
		}
		if len(ym) > 0 {
			out[strconv.Itoa(year)] = ym
		}
	}
	return out
}

func decodeIndex(raw map[string]map[string]map[string]bool) (availability.BookingsIndex, error) {
	idx := availability.NewIndex()
	for ys, months := range raw {
		year, err := strconv.Atoi(ys)
		if err != nil {
			return nil, fmt.Errorf("bookings index year %q: %w", ys, err)
		}
		for ms, days := range months {
			month, err := strconv.Atoi(ms)
			if err != nil || month < 1 || month > 12 {
				return nil, fmt.Errorf("bookings index month %q is invalid", ms)
			}
			for ds, set := range days {
				day, err := strconv.Atoi(ds)
				if err != nil || day < 1 || day > 31 {
					return nil, fmt.Errorf("bookings index day %q is invalid", ds)
				}
				if !set {
					continue
				}
				if idx[year] == nil {
					idx[year] = map[time.Month]map[int]bool{}
				}
				if idx[year][time.Month(month)] == nil {
					idx[year][time.Month(month)] = map[int]bool{}
				}
				idx[year][time.Month(month)][day] = true
			}
		}
	}
	return idx, nil
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
