package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/paging"
	domainuser "tinyhouse/internal/domain/user"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	_, err := r.col.InsertOne(ctx, newBookingDocument(b))
	return err
}

func (r *BookingRepository) ByIDs(ctx context.Context, ids []string, w paging.Window) (paging.Page[*domainbooking.Booking], error) {
	if len(ids) == 0 {
		return paging.Page[*domainbooking.Booking]{Result: []*domainbooking.Booking{}}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return paging.Page[*domainbooking.Booking]{}, err
	}
	opts := options.Find().SetSort(storeOrder).SetSkip(int64(w.Skip())).SetLimit(int64(w.Limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return paging.Page[*domainbooking.Booking]{}, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return paging.Page[*domainbooking.Booking]{}, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return paging.Page[*domainbooking.Booking]{Total: int(total), Result: out}, nil
}

type bookingDocument struct {
	ID        string        `bson:"_id"`
	ListingID string        `bson:"listing_id"`
	TenantID  string        `bson:"tenant_id"`
	Range     rangeDocument `bson:"range"`
	Total     int64         `bson:"total"`
	CreatedAt time.Time     `bson:"created_at"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		TenantID:  string(b.TenantID),
		Range:     rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Total:     b.Total,
		CreatedAt: b.CreatedAt.UTC(),
	}
}

func (d bookingDocument) toDomain() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.ID(d.ID),
		ListingID: domainlistings.ID(d.ListingID),
		TenantID:  domainuser.ID(d.TenantID),
		Range:     daterange.Span(timestampToTime(d.Range.CheckIn), timestampToTime(d.Range.CheckOut)),
		Total:     d.Total,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
