package stream

import (
	"testing"
	"time"
)

func TestDecodeGestureMessage(t *testing.T) {
	payload := []byte(`{"type":"gesture","gesture":"HELLO","confidence":0.92,"timestamp":1755900000.25}`)

	event, err := decodeMessage(payload)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	gesture, ok := event.(GestureEvent)
	if !ok {
		t.Fatalf("expected a gesture event, got %T", event)
	}
	if gesture.Label != "HELLO" {
		t.Fatalf("expected label %q, got %q", "HELLO", gesture.Label)
	}
	if gesture.Confidence != 0.92 {
		t.Fatalf("expected confidence 0.92, got %v", gesture.Confidence)
	}
	if expected := time.Unix(1755900000, 250000000); !gesture.At.Equal(expected) {
		t.Fatalf("expected timestamp %v, got %v", expected, gesture.At)
	}
}

func TestDecodeTranscriptMessage(t *testing.T) {
	event, err := decodeMessage([]byte(`{"type":"transcript","sentence":"Hello there.","timestamp":1755900000}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	transcript, ok := event.(TranscriptEvent)
	if !ok {
		t.Fatalf("expected a transcript event, got %T", event)
	}
	if transcript.Text != "Hello there." {
		t.Fatalf("expected text %q, got %q", "Hello there.", transcript.Text)
	}
	if transcript.Partial {
		t.Fatalf("expected a final transcript by default")
	}
}

func TestDecodeTranscriptCarriesPartialFlag(t *testing.T) {
	event, err := decodeMessage([]byte(`{"type":"transcript","sentence":"Hello th","partial":true,"timestamp":1755900000}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	transcript := event.(TranscriptEvent)
	if !transcript.Partial {
		t.Fatalf("expected a partial transcript")
	}
	if transcript.Text != "Hello th" {
		t.Fatalf("expected text %q, got %q", "Hello th", transcript.Text)
	}
}

func TestDecodeTranscriptFallsBackToNestedText(t *testing.T) {
	event, err := decodeMessage([]byte(`{"type":"transcript","data":{"text":"Nested form."}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	transcript := event.(TranscriptEvent)
	if transcript.Text != "Nested form." {
		t.Fatalf("expected fallback text %q, got %q", "Nested form.", transcript.Text)
	}
}

func TestDecodeTranscriptPrefersTopLevelSentence(t *testing.T) {
	event, err := decodeMessage([]byte(`{"type":"transcript","sentence":"Top level.","data":{"text":"Nested form."}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	transcript := event.(TranscriptEvent)
	if transcript.Text != "Top level." {
		t.Fatalf("expected top-level sentence to win, got %q", transcript.Text)
	}
}

func TestDecodeStatusMessageMergesPartially(t *testing.T) {
	event, err := decodeMessage([]byte(`{"type":"status","data":{"gesture":"processing"}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	status, ok := event.(StatusEvent)
	if !ok {
		t.Fatalf("expected a status event, got %T", event)
	}
	if len(status.Stages) != 1 || status.Stages["gesture"] != "processing" {
		t.Fatalf("expected only the gesture stage, got %v", status.Stages)
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	event, err := decodeMessage([]byte(`{"type":"error","data":{"message":"classifier offline"}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	errorEvent, ok := event.(ErrorEvent)
	if !ok {
		t.Fatalf("expected an error event, got %T", event)
	}
	if errorEvent.Message != "classifier offline" {
		t.Fatalf("expected message %q, got %q", "classifier offline", errorEvent.Message)
	}
}

func TestDecodePingIsDropped(t *testing.T) {
	event, err := decodeMessage([]byte(`{"type":"ping"}`))
	if err != nil {
		t.Fatalf("expected ping to be accepted, got %v", err)
	}
	if event != nil {
		t.Fatalf("expected ping to decode to nothing, got %T", event)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	if _, err := decodeMessage([]byte(`{"type":"telemetry"}`)); err == nil {
		t.Fatalf("expected an error for an unknown message type")
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	if _, err := decodeMessage([]byte(`{"type":"gesture"`)); err == nil {
		t.Fatalf("expected an error for a malformed payload")
	}
}
