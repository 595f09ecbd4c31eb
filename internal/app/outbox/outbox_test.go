package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tinyhouse/internal/domain/shared/events"
)

type recordingOutbox struct {
	records []EventRecord
	err     error
}

func (o *recordingOutbox) Add(_ context.Context, rec EventRecord) error {
	if o.err != nil {
		return o.err
	}
	o.records = append(o.records, rec)
	return nil
}

type sampleEvent struct {
	events.Base
	Value int `json:"value"`
}

func TestRecordEncodesInOrder(t *testing.T) {
	box := &recordingOutbox{}
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	enc := JSONEventEncoder{IDGenerator: func() string { n++; return "evt-" + string(rune('0'+n)) }}

	err := Record(context.Background(), box, enc,
		sampleEvent{Base: events.Base{Name: "sample.one", Aggregate: "a-1", At: at}, Value: 1},
		sampleEvent{Base: events.Base{Name: "sample.two", Aggregate: "a-2", At: at}, Value: 2},
	)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(box.records) != 2 {
		t.Fatalf("records = %d, want 2", len(box.records))
	}
	first := box.records[0]
	if first.ID != "evt-1" || first.Name != "sample.one" || first.Aggregate != "a-1" {
		t.Fatalf("first record = %+v", first)
	}
	var payload map[string]any
	if err := json.Unmarshal(first.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["value"] != float64(1) {
		t.Errorf("payload = %v", payload)
	}
}

func TestRecordPropagatesAddError(t *testing.T) {
	box := &recordingOutbox{err: errors.New("disk full")}
	ev := sampleEvent{Base: events.Base{Name: "x", Aggregate: "a", At: time.Now()}}
	if err := Record(context.Background(), box, nil, ev); err == nil {
		t.Fatal("expected error")
	}
	if err := Record(context.Background(), nil, nil, ev); err != nil {
		t.Fatalf("nil outbox should drop events, got %v", err)
	}
}
