package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "tinyhouse/internal/app/outbox"
	infraoutbox "tinyhouse/internal/infra/outbox"
)

const (
	outboxNew     = "NEW"
	outboxClaimed = "CLAIMED"
	outboxFailed  = "FAILED"
)

type outboxEntry struct {
	record    appoutbox.EventRecord
	state     string
	attempts  int
	nextAt    time.Time
	lastError string
}

// Outbox keeps event records in memory and serves them to the relay worker.
// Sent records are forgotten. With a limit, adding past it drops the oldest
// unclaimed record.
type Outbox struct {
	mu      sync.Mutex
	entries []*outboxEntry
	limit   int
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// NewBoundedOutbox holds at most limit records.
func NewBoundedOutbox(limit int) *Outbox {
	return &Outbox{limit: limit}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.limit > 0 && len(o.entries) >= o.limit {
		o.dropOldestUnclaimed()
	}
	o.entries = append(o.entries, &outboxEntry{record: record, state: outboxNew})
	return nil
}

func (o *Outbox) dropOldestUnclaimed() {
	for i, e := range o.entries {
		if e.state != outboxClaimed {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return
		}
	}
}

func (o *Outbox) Claim(ctx context.Context, workerID string, now time.Time) (*infraoutbox.Claimed, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if (e.state == outboxNew || e.state == outboxFailed) && !e.nextAt.After(now) {
			e.state = outboxClaimed
			return &infraoutbox.Claimed{
				ID:         e.record.ID,
				Name:       e.record.Name,
				Aggregate:  e.record.Aggregate,
				Payload:    append([]byte(nil), e.record.Payload...),
				OccurredAt: e.record.OccurredAt,
				Headers:    e.record.Headers,
				Attempts:   e.attempts,
			}, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string, at time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.entries {
		if e.record.ID == id {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.withEntry(id, func(e *outboxEntry) {
		e.state = outboxFailed
		e.attempts++
		e.nextAt = next
		e.lastError = errMsg
	})
	return nil
}

// Records returns the records not yet sent, in order.
func (o *Outbox) Records() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, e.record)
	}
	return out
}

// Pending counts records not yet sent.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

func (o *Outbox) withEntry(id string, fn func(e *outboxEntry)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.record.ID == id {
			fn(e)
			return
		}
	}
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
