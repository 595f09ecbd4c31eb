package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"tinyhouse/internal/app/middleware"
)

// IdempotencyStore keeps command replay records with a Redis expiry.
type IdempotencyStore struct {
	KV     KV
	TTL    time.Duration
	Prefix string
}

type idempotencyDoc struct {
	Payload    []byte    `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.KV.Get(ctx, s.prefix()+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	var doc idempotencyDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{Key: key, Payload: doc.Payload, OccurredAt: doc.OccurredAt}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	payload, err := json.Marshal(idempotencyDoc{Payload: rec.Payload, OccurredAt: rec.OccurredAt})
	if err != nil {
		return err
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return s.KV.Set(ctx, s.prefix()+rec.Key, payload, ttl).Err()
}

func (s *IdempotencyStore) prefix() string {
	if s.Prefix != "" {
		return s.Prefix
	}
	return "tinyhouse:idem:"
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
