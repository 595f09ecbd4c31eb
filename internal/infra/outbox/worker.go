// Package outbox relays stored domain events to the message broker.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Claimed is an outbox record leased to one worker.
type Claimed struct {
	ID         string
	Name       string
	Aggregate  string
	Payload    []byte
	OccurredAt time.Time
	Headers    map[string]string
	Attempts   int
}

// Store hands out pending records. Claim returns nil, nil when nothing is due.
type Store interface {
	Claim(ctx context.Context, workerID string, now time.Time) (*Claimed, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// RelayObserver counts relay outcomes ("sent", "failed").
type RelayObserver interface {
	ObserveRelay(outcome string)
}

type Worker struct {
	Store       Store
	Producer    Producer
	Interval    time.Duration
	BatchSize   int
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Observer    RelayObserver
	Logger      *slog.Logger
	Now         func() time.Time
}

// Run polls until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && w.Logger != nil {
				w.Logger.Error("outbox relay failed", "error", err)
			}
		}
	}
}

// Drain relays up to BatchSize records and reports how many were claimed.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	n := 0
	for n < w.batchSize() {
		ok, err := w.ProcessOnce(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
	return n, nil
}

// ProcessOnce relays one record. It returns false when nothing was pending.
// A publish failure reschedules the record and is not returned.
func (w *Worker) ProcessOnce(ctx context.Context) (bool, error) {
	if w.Store == nil || w.Producer == nil {
		return false, ErrWorkerNotConfigured
	}
	rec, err := w.Store.Claim(ctx, w.workerID(), w.now())
	if err != nil || rec == nil {
		return false, err
	}
	payload, headers, err := w.envelope(rec)
	if err == nil {
		err = w.Producer.Publish(ctx, w.topicFor(rec.Name), rec.Aggregate, payload, headers)
	}
	if err != nil {
		if w.Logger != nil {
			w.Logger.Warn("outbox publish failed", "event_id", rec.ID, "event", rec.Name, "attempts", rec.Attempts, "error", err)
		}
		w.observe("failed")
		return true, w.Store.MarkFailed(ctx, rec.ID, w.nextRetry(rec.Attempts), err.Error())
	}
	w.observe("sent")
	return true, w.Store.MarkSent(ctx, rec.ID, w.now())
}

func (w *Worker) observe(outcome string) {
	if w.Observer != nil {
		w.Observer.ObserveRelay(outcome)
	}
}

// envelope wraps the record as a structured-mode CloudEvent.
func (w *Worker) envelope(rec *Claimed) ([]byte, map[string]string, error) {
	var data map[string]any
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt.UTC().Format(time.RFC3339Nano),
		"datacontenttype": "application/json",
		"data":            data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := make(map[string]string, len(rec.Headers)+1)
	for k, v := range rec.Headers {
		headers[k] = v
	}
	headers["content-type"] = "application/cloudevents+json"
	return payload, headers, nil
}

// topicFor maps "booking.created" to "{prefix}booking.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return "outbox-worker"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 50
	}
	return w.BatchSize
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := w.now()
	switch {
	case attempts < len(w.Backoff):
		return now.Add(w.Backoff[attempts])
	case len(w.Backoff) > 0:
		return now.Add(w.Backoff[len(w.Backoff)-1])
	default:
		return now.Add(5 * time.Second)
	}
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://tinyhouse"
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}
