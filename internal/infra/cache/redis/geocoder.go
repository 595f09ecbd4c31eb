package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domainlistings "tinyhouse/internal/domain/listings"
)

type Geocoder interface {
	Geocode(ctx context.Context, address string) (domainlistings.Location, error)
}

// CachingGeocoder answers repeated addresses from Redis. Cache failures fall
// through to the wrapped geocoder; provider errors are never cached.
type CachingGeocoder struct {
	Next   Geocoder
	KV     KV
	TTL    time.Duration
	Prefix string
	Logger *slog.Logger
}

type cachedLocation struct {
	Country string `json:"country"`
	Admin   string `json:"admin"`
	City    string `json:"city"`
}

func (g *CachingGeocoder) Geocode(ctx context.Context, address string) (domainlistings.Location, error) {
	if g.KV == nil {
		return g.Next.Geocode(ctx, address)
	}
	key := g.key(address)
	raw, err := g.KV.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c cachedLocation
		if jsonErr := json.Unmarshal(raw, &c); jsonErr == nil {
			return domainlistings.Location{Country: c.Country, Admin: c.Admin, City: c.City}, nil
		}
	case !errors.Is(err, redis.Nil):
		g.warn(ctx, "geocode cache read failed", err)
	}

	loc, err := g.Next.Geocode(ctx, address)
	if err != nil {
		return loc, err
	}
	payload, _ := json.Marshal(cachedLocation{Country: loc.Country, Admin: loc.Admin, City: loc.City})
	if err := g.KV.Set(ctx, key, payload, g.ttl()).Err(); err != nil {
		g.warn(ctx, "geocode cache write failed", err)
	}
	return loc, nil
}

// key normalizes case and whitespace so "Toronto " and "toronto" share an entry.
func (g *CachingGeocoder) key(address string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	sum := sha256.Sum256([]byte(norm))
	prefix := g.Prefix
	if prefix == "" {
		prefix = "tinyhouse:geocode:"
	}
	return prefix + hex.EncodeToString(sum[:])
}

func (g *CachingGeocoder) ttl() time.Duration {
	if g.TTL <= 0 {
		return 24 * time.Hour
	}
	return g.TTL
}

func (g *CachingGeocoder) warn(ctx context.Context, msg string, err error) {
	if g.Logger != nil {
		g.Logger.WarnContext(ctx, msg, "error", err)
	}
}
