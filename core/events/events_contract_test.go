package events

import (
	"testing"
	"time"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "session state changed", event: NewSessionStateChanged("active"), expected: KindSessionStateChanged},
		{name: "session error", event: NewSessionError("stream unavailable"), expected: KindSessionError},
		{name: "gesture accepted", event: NewGestureAccepted("HELLO", 0.92), expected: KindGestureAccepted},
		{name: "gesture unclear", event: NewGestureUnclear(0.31), expected: KindGestureUnclear},
		{name: "sentence flushed", event: NewSentenceFlushed([]string{"HELLO", "THANKS"}), expected: KindSentenceFlushed},
		{name: "transcript entry added", event: NewTranscriptEntryAdded("e1", "Hello there.", false), expected: KindTranscriptEntryAdded},
		{name: "status updated", event: NewStatusUpdated(map[string]string{"capture": "connected"}), expected: KindStatusUpdated},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if testCase.event.Kind() != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, testCase.event.Kind())
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected a non-zero timestamp")
			}
			if time.Since(testCase.event.Timestamp()) > time.Minute {
				t.Fatalf("expected a recent timestamp, got %v", testCase.event.Timestamp())
			}
		})
	}
}

func TestEventPayloadsRoundTrip(t *testing.T) {
	accepted := NewGestureAccepted("THANKS", 0.87)
	if accepted.Label != "THANKS" {
		t.Fatalf("expected label %q, got %q", "THANKS", accepted.Label)
	}
	if accepted.Confidence != 0.87 {
		t.Fatalf("expected confidence %v, got %v", 0.87, accepted.Confidence)
	}

	flushed := NewSentenceFlushed([]string{"ME", "GO", "STORE"})
	if len(flushed.Labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(flushed.Labels))
	}

	entry := NewTranscriptEntryAdded("id-1", "I am going to the store.", true)
	if !entry.Partial {
		t.Fatalf("expected a partial entry")
	}

	status := NewStatusUpdated(map[string]string{"gesture": "processing", "transcript": "ready"})
	if status.Stages["gesture"] != "processing" {
		t.Fatalf("expected gesture stage %q, got %q", "processing", status.Stages["gesture"])
	}
}
