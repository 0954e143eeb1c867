package interpretation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Marophobia/signsense/core/gesture"
	"github.com/Marophobia/signsense/core/stream"
)

func TestGestureBufferOptionsTuneTheSessionBuffer(t *testing.T) {
	session := NewSession(WithGestureBufferOptions(gesture.WithConfidenceThreshold(0.9)))
	defer session.Close()

	session.HandleEvent(stream.GestureEvent{Label: "HELLO", Confidence: 0.8, At: time.Now()})

	if history := session.GestureHistory(); len(history) != 0 {
		t.Fatalf("expected the raised threshold to reject the observation, got %v", history)
	}

	session.HandleEvent(stream.GestureEvent{Label: "HELLO", Confidence: 0.95, At: time.Now()})

	if history := session.GestureHistory(); len(history) != 1 || history[0].Label != "HELLO" {
		t.Fatalf("expected the confident observation to be accepted, got %v", history)
	}
}

func TestSessionCallbacksWinOverBufferCallbackOptions(t *testing.T) {
	hijacked := atomic.Int32{}
	delivered := atomic.Int32{}

	session := NewSession(WithGestureBufferOptions(
		gesture.WithAcceptedCallback(func(accepted gesture.Accepted) {
			hijacked.Add(1)
		}),
	))
	defer session.Close()

	if err := session.Start(context.Background(), WithGestureCallback(func(label string, confidence float64) {
		delivered.Add(1)
	})); err != nil {
		t.Fatalf("expected detached start to succeed, got %v", err)
	}

	session.HandleEvent(stream.GestureEvent{Label: "HELLO", Confidence: 0.9, At: time.Now()})

	if got := delivered.Load(); got != 1 {
		t.Fatalf("expected the session callback to receive the gesture, got %d deliveries", got)
	}
	if got := hijacked.Load(); got != 0 {
		t.Fatalf("expected the session to own the buffer callbacks, got %d hijacked calls", got)
	}
}

func TestStatusBoardOptionsTuneDecay(t *testing.T) {
	session := NewSession(WithStatusBoardOptions(WithGestureDecay(30 * time.Millisecond)))
	defer session.Close()

	session.HandleEvent(stream.GestureEvent{Label: "HELLO", Confidence: 0.9, At: time.Now()})

	if got := session.Pipeline()[StageGesture]; got != StatusProcessing {
		t.Fatalf("expected gesture stage processing right after an event, got %q", got)
	}

	time.Sleep(90 * time.Millisecond)

	if got := session.Pipeline()[StageGesture]; got != StatusReady {
		t.Fatalf("expected gesture stage to decay with the tuned window, got %q", got)
	}
}
