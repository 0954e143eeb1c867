package gesture

import (
	"sync"
	"testing"
	"time"
)

func TestAcceptRejectsBelowThreshold(t *testing.T) {
	unclear := []float64{}
	buffer := NewBuffer(
		WithUnclearCallback(func(confidence float64) {
			unclear = append(unclear, confidence)
		}),
	)

	if _, ok := buffer.Accept(Observation{Label: "WAVE", Confidence: 0.3}); ok {
		t.Fatalf("expected rejection of sub-threshold observation")
	}

	if len(buffer.History()) != 0 {
		t.Fatalf("expected empty history, got %v", buffer.History())
	}
	if len(buffer.Sentence()) != 0 {
		t.Fatalf("expected empty sentence, got %v", buffer.Sentence())
	}
	if len(unclear) != 1 || unclear[0] != 0.3 {
		t.Fatalf("expected a single unclear signal with confidence 0.3, got %v", unclear)
	}
}

func TestAcceptCollapsesRepeatedLabels(t *testing.T) {
	accepted := []string{}
	buffer := NewBuffer(
		WithAcceptedCallback(func(gesture Accepted) {
			accepted = append(accepted, gesture.Label)
		}),
	)

	observations := []Observation{
		{Label: "HELLO", Confidence: 0.9},
		{Label: "HELLO", Confidence: 0.9},
		{Label: "THANKS", Confidence: 0.8},
	}
	for _, observation := range observations {
		buffer.Accept(observation)
	}

	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted gestures, got %d (%v)", len(accepted), accepted)
	}
	if accepted[0] != "HELLO" || accepted[1] != "THANKS" {
		t.Fatalf("expected HELLO then THANKS, got %v", accepted)
	}
	if got := buffer.SentenceHint(); got != "HELLO THANKS" {
		t.Fatalf("expected sentence hint %q, got %q", "HELLO THANKS", got)
	}
}

func TestSilenceFlushClosesSentenceAndReArms(t *testing.T) {
	var mu sync.Mutex
	flushed := [][]string{}
	buffer := NewBuffer(
		WithSilenceTimeout(30*time.Millisecond),
		WithSentenceCallback(func(labels []string) {
			mu.Lock()
			flushed = append(flushed, labels)
			mu.Unlock()
		}),
	)

	if _, ok := buffer.Accept(Observation{Label: "HELLO", Confidence: 0.9}); !ok {
		t.Fatalf("expected initial acceptance")
	}

	time.Sleep(90 * time.Millisecond)

	mu.Lock()
	if len(flushed) != 1 || len(flushed[0]) != 1 || flushed[0][0] != "HELLO" {
		t.Fatalf("expected a single flushed sentence [HELLO], got %v", flushed)
	}
	mu.Unlock()
	if len(buffer.Sentence()) != 0 {
		t.Fatalf("expected empty sentence after silence, got %v", buffer.Sentence())
	}
	if buffer.LastAcceptedLabel() != "" {
		t.Fatalf("expected cleared duplicate suppression, got %q", buffer.LastAcceptedLabel())
	}

	if _, ok := buffer.Accept(Observation{Label: "HELLO", Confidence: 0.9}); !ok {
		t.Fatalf("expected re-acceptance of the same label after silence")
	}

	time.Sleep(90 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(flushed) != 2 {
		t.Fatalf("expected a second flush for the re-armed sentence, got %v", flushed)
	}
}

func TestSubThresholdNoiseDoesNotCloseSentence(t *testing.T) {
	buffer := NewBuffer(WithSilenceTimeout(time.Minute))

	buffer.Accept(Observation{Label: "HELLO", Confidence: 0.9})
	for range 5 {
		buffer.Accept(Observation{Label: "WAVE", Confidence: 0.2})
	}

	if got := buffer.SentenceHint(); got != "HELLO" {
		t.Fatalf("expected noise to leave the sentence as %q, got %q", "HELLO", got)
	}
	if buffer.LastAcceptedLabel() != "HELLO" {
		t.Fatalf("expected duplicate suppression to survive noise, got %q", buffer.LastAcceptedLabel())
	}
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	buffer := NewBuffer(WithHistorySize(3))

	for _, label := range []string{"A", "B", "C", "D"} {
		buffer.Accept(Observation{Label: label, Confidence: 0.9})
	}

	history := buffer.History()
	if len(history) != 3 {
		t.Fatalf("expected history of 3, got %d", len(history))
	}
	for i, expected := range []string{"B", "C", "D"} {
		if history[i].Label != expected {
			t.Fatalf("expected history[%d] to be %q, got %q", i, expected, history[i].Label)
		}
	}
}

func TestUnclearSentinelNeverAccepted(t *testing.T) {
	unclearSignals := 0
	buffer := NewBuffer(
		WithUnclearCallback(func(confidence float64) { unclearSignals++ }),
	)

	if _, ok := buffer.Accept(Observation{Label: UnclearLabel, Confidence: 0.99}); ok {
		t.Fatalf("expected the unclear sentinel to be rejected at any confidence")
	}
	if len(buffer.History()) != 0 {
		t.Fatalf("expected the sentinel to stay out of history, got %v", buffer.History())
	}
	if unclearSignals != 1 {
		t.Fatalf("expected 1 unclear signal, got %d", unclearSignals)
	}
}

func TestResetCancelsPendingSilenceTimer(t *testing.T) {
	var mu sync.Mutex
	flushes := 0
	buffer := NewBuffer(
		WithSilenceTimeout(30*time.Millisecond),
		WithSentenceCallback(func(labels []string) {
			mu.Lock()
			flushes++
			mu.Unlock()
		}),
	)

	buffer.Accept(Observation{Label: "HELLO", Confidence: 0.9})
	buffer.Reset()

	time.Sleep(90 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if flushes != 0 {
		t.Fatalf("expected no flush after reset, got %d", flushes)
	}
	if len(buffer.History()) != 0 || len(buffer.Sentence()) != 0 {
		t.Fatalf("expected reset to clear all state")
	}
}

func TestCloseRejectsFurtherObservations(t *testing.T) {
	buffer := NewBuffer()
	buffer.Accept(Observation{Label: "HELLO", Confidence: 0.9})
	buffer.Close()

	if _, ok := buffer.Accept(Observation{Label: "THANKS", Confidence: 0.9}); ok {
		t.Fatalf("expected closed buffer to reject observations")
	}
	if len(buffer.History()) != 0 {
		t.Fatalf("expected close to clear history, got %v", buffer.History())
	}
}
