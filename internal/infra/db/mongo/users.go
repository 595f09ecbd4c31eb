package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainuser "tinyhouse/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(usersCollection)}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

// ByIDAndToken matches id and token on the same document in one round trip.
func (r *UserRepository) ByIDAndToken(ctx context.Context, id domainuser.ID, token string) (*domainuser.User, error) {
	if id == "" || token == "" {
		return nil, domainuser.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": string(id), "token": token})
}

// UpsertLogin creates or refreshes the user in one findAndModify. The user is
// new when the stored created_at is the login time, which only $setOnInsert
// writes.
func (r *UserRepository) UpsertLogin(ctx context.Context, profile domainuser.Profile, token string, now time.Time) (*domainuser.User, bool, error) {
	id := strings.TrimSpace(string(profile.ID))
	if id == "" {
		return nil, false, domainuser.ErrIDRequired
	}
	// BSON dates keep milliseconds.
	now = now.UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"name":       profile.Name,
			"avatar":     profile.Avatar,
			"contact":    profile.Contact,
			"token":      token,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"wallet_id":  "",
			"income":     int64(0),
			"listings":   bson.A{},
			"bookings":   bson.A{},
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc userDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		return nil, false, err
	}
	return doc.toDomain(), doc.CreatedAt.Equal(now), nil
}

func (r *UserRepository) RotateToken(ctx context.Context, id domainuser.ID, token string, now time.Time) (*domainuser.User, error) {
	return r.findAndSet(ctx, id, bson.M{"token": token, "updated_at": now.UTC()})
}

func (r *UserRepository) SetWallet(ctx context.Context, id domainuser.ID, walletID string, now time.Time) (*domainuser.User, error) {
	return r.findAndSet(ctx, id, bson.M{"wallet_id": walletID, "updated_at": now.UTC()})
}

func (r *UserRepository) AddIncome(ctx context.Context, id domainuser.ID, amount int64) error {
	if amount <= 0 {
		return domainuser.ErrNegativeIncome
	}
	return r.updateExisting(ctx, id, bson.M{"$inc": bson.M{"income": amount}})
}

func (r *UserRepository) AppendListing(ctx context.Context, id domainuser.ID, listingID string) error {
	return r.updateExisting(ctx, id, bson.M{"$push": bson.M{"listings": listingID}})
}

func (r *UserRepository) AppendBooking(ctx context.Context, id domainuser.ID, bookingID string) error {
	return r.updateExisting(ctx, id, bson.M{"$push": bson.M{"bookings": bookingID}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) findAndSet(ctx context.Context, id domainuser.ID, set bson.M) (*domainuser.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": string(id)}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) updateExisting(ctx context.Context, id domainuser.ID, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": string(id)}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainuser.ErrNotFound
	}
	return nil
}

type userDocument struct {
	ID        string    `bson:"_id"`
	Token     string    `bson:"token"`
	Name      string    `bson:"name"`
	Avatar    string    `bson:"avatar"`
	Contact   string    `bson:"contact"`
	WalletID  string    `bson:"wallet_id"`
	Income    int64     `bson:"income"`
	Listings  []string  `bson:"listings"`
	Bookings  []string  `bson:"bookings"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d userDocument) toDomain() *domainuser.User {
	return &domainuser.User{
		ID:        domainuser.ID(d.ID),
		Token:     d.Token,
		Name:      d.Name,
		Avatar:    d.Avatar,
		Contact:   d.Contact,
		WalletID:  d.WalletID,
		Income:    d.Income,
		Listings:  nonNil(d.Listings),
		Bookings:  nonNil(d.Bookings),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

var _ domainuser.Repository = (*UserRepository)(nil)
