package events

import "time"

// DomainEvent is a fact recorded by an aggregate and relayed through the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Recorder collects events raised while a single operation runs.
type Recorder struct {
	pending []DomainEvent
}

func (r *Recorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

// Drain returns the recorded events and resets the recorder.
func (r *Recorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

func (r *Recorder) Len() int {
	return len(r.pending)
}

// Base carries the envelope fields shared by every event.
type Base struct {
	Name      string    `json:"-"`
	Aggregate string    `json:"aggregate_id"`
	At        time.Time `json:"occurred_at"`
}

func (e Base) EventName() string     { return e.Name }
func (e Base) AggregateID() string   { return e.Aggregate }
func (e Base) OccurredAt() time.Time { return e.At }
