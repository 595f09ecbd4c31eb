package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "tinyhouse/internal/app/outbox"
	infraoutbox "tinyhouse/internal/infra/outbox"
)

const (
	outboxStatusNew     = "NEW"
	outboxStatusClaimed = "CLAIMED"
	outboxStatusSent    = "SENT"
	outboxStatusFailed  = "FAILED"
)

// OutboxStore persists event records in app_outbox. A claim whose worker
// died is handed out again once Lease has passed.
type OutboxStore struct {
	col   *mongo.Collection
	Lease time.Duration
}

func NewOutboxStore(db *mongo.Database) *OutboxStore {
	return &OutboxStore{col: db.Collection(outboxCollection), Lease: time.Minute}
}

func (s *OutboxStore) Add(ctx context.Context, rec appoutbox.EventRecord) error {
	doc := outboxDocument{
		ID:            rec.ID,
		Name:          rec.Name,
		Aggregate:     rec.Aggregate,
		Payload:       rec.Payload,
		Headers:       rec.Headers,
		OccurredAt:    rec.OccurredAt.UTC(),
		Status:        outboxStatusNew,
		NextAttemptAt: rec.OccurredAt.UTC(),
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

func (s *OutboxStore) Claim(ctx context.Context, workerID string, now time.Time) (*infraoutbox.Claimed, error) {
	now = now.UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"status": bson.M{"$in": bson.A{outboxStatusNew, outboxStatusFailed}}, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"status": outboxStatusClaimed, "claimed_at": bson.M{"$lte": now.Add(-s.lease())}},
	}}
	update := bson.M{"$set": bson.M{"status": outboxStatusClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).
		SetReturnDocument(options.After)
	var doc outboxDocument
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &infraoutbox.Claimed{
		ID:         doc.ID,
		Name:       doc.Name,
		Aggregate:  doc.Aggregate,
		Payload:    doc.Payload,
		OccurredAt: doc.OccurredAt.UTC(),
		Headers:    doc.Headers,
		Attempts:   doc.Attempts,
	}, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": outboxStatusSent, "sent_at": at.UTC()}})
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"status": outboxStatusFailed, "next_attempt_at": next.UTC(), "last_error": errMsg},
		"$inc": bson.M{"attempts": 1},
	})
	return err
}

func (s *OutboxStore) lease() time.Duration {
	if s.Lease <= 0 {
		return time.Minute
	}
	return s.Lease
}

type outboxDocument struct {
	ID            string            `bson:"_id"`
	Name          string            `bson:"name"`
	Aggregate     string            `bson:"aggregate"`
	Payload       []byte            `bson:"payload"`
	Headers       map[string]string `bson:"headers"`
	OccurredAt    time.Time         `bson:"occurred_at"`
	Status        string            `bson:"status"`
	Attempts      int               `bson:"attempts"`
	NextAttemptAt time.Time         `bson:"next_attempt_at"`
	LastError     string            `bson:"last_error,omitempty"`
	ClaimedBy     string            `bson:"claimed_by,omitempty"`
	ClaimedAt     *time.Time        `bson:"claimed_at,omitempty"`
	SentAt        *time.Time        `bson:"sent_at,omitempty"`
}

var (
	_ appoutbox.Outbox  = (*OutboxStore)(nil)
	_ infraoutbox.Store = (*OutboxStore)(nil)
)
