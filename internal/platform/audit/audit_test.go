package audit

import (
	"context"
	"testing"
)

func TestMemorySinkCollectsEvents(t *testing.T) {
	sink := &MemorySink{}

	sink.Record(context.Background(), EventCronRun, "daily reminder run", map[string]any{"created": 4})
	sink.Record(context.Background(), EventDangerSign, "danger signs recorded", nil)

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != EventCronRun {
		t.Errorf("unexpected first event kind: %s", events[0].Kind)
	}
	if events[0].Metadata["created"] != 4 {
		t.Errorf("metadata not preserved: %+v", events[0].Metadata)
	}
}
