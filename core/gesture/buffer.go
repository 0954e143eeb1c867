package gesture

import (
	"strings"
	"sync"
	"time"
)

// UnclearLabel is the sentinel emitted by classifiers that cannot commit to a
// gesture. It is suppressed from history and the sentence run regardless of
// the confidence attached to it.
const UnclearLabel = "[UNCLEAR]"

const (
	defaultConfidenceThreshold = 0.65
	defaultSilenceTimeout      = 2000 * time.Millisecond
	defaultHistorySize         = 20
	defaultSentenceSize        = 30
)

// Observation is a single classifier output considered for acceptance.
type Observation struct {
	Label      string
	Confidence float64
	At         time.Time
}

// Accepted is an observation that passed confidence filtering and duplicate
// debouncing and entered the gesture history.
type Accepted struct {
	Label      string
	Confidence float64
	At         time.Time
}

// Buffer turns a noisy stream of per-frame classifications into discrete
// accepted gestures and silence-delimited sentence runs.
//
// Identical consecutive labels collapse into a single acceptance until the
// label changes or a silence window elapses. Sub-threshold observations never
// touch the sentence run, only elapsed silence closes it.
type Buffer struct {
	mu sync.Mutex

	confidenceThreshold float64
	silenceTimeout      time.Duration
	historySize         int
	sentenceSize        int

	history           []Accepted
	sentence          []string
	lastAcceptedLabel string

	silenceTimer *time.Timer
	silenceGen   int

	closed bool

	onAccepted func(accepted Accepted)
	onUnclear  func(confidence float64)
	onSentence func(labels []string)
}

// NewBuffer creates a gesture buffer with the default threshold, silence
// window and capacities, modified by any provided options.
func NewBuffer(opts ...BufferOption) *Buffer {
	buffer := &Buffer{
		confidenceThreshold: defaultConfidenceThreshold,
		silenceTimeout:      defaultSilenceTimeout,
		historySize:         defaultHistorySize,
		sentenceSize:        defaultSentenceSize,
	}

	for _, opt := range opts {
		opt(buffer)
	}

	return buffer
}

// Accept considers a single observation, returning the accepted gesture and
// true if it entered history.
//
// Sub-threshold observations and the [UnclearLabel] sentinel are reported
// through the unclear callback and change no state. A repeat of the last
// accepted label is a silent no-op until the label changes or silence resets
// the run.
func (b *Buffer) Accept(observation Observation) (Accepted, bool) {
	if observation.At.IsZero() {
		observation.At = time.Now()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Accepted{}, false
	}

	if observation.Confidence < b.confidenceThreshold || observation.Label == UnclearLabel {
		onUnclear := b.onUnclear
		b.mu.Unlock()
		if onUnclear != nil {
			onUnclear(observation.Confidence)
		}
		return Accepted{}, false
	}

	if observation.Label == b.lastAcceptedLabel {
		b.mu.Unlock()
		return Accepted{}, false
	}

	accepted := Accepted{
		Label:      observation.Label,
		Confidence: observation.Confidence,
		At:         observation.At,
	}
	b.history = append(b.history, accepted)
	if len(b.history) > b.historySize {
		b.history = b.history[len(b.history)-b.historySize:]
	}
	b.sentence = append(b.sentence, accepted.Label)
	if len(b.sentence) > b.sentenceSize {
		b.sentence = b.sentence[len(b.sentence)-b.sentenceSize:]
	}
	b.lastAcceptedLabel = accepted.Label
	b.restartSilenceTimerLocked()
	onAccepted := b.onAccepted
	b.mu.Unlock()

	if onAccepted != nil {
		onAccepted(accepted)
	}
	return accepted, true
}

// restartSilenceTimerLocked is safe to call from a locked context only. It
// replaces any pending silence timer so at most one is armed at a time.
func (b *Buffer) restartSilenceTimerLocked() {
	if b.silenceTimer != nil {
		b.silenceTimer.Stop()
	}
	b.silenceGen++
	generation := b.silenceGen
	b.silenceTimer = time.AfterFunc(b.silenceTimeout, func() {
		b.flushSilence(generation)
	})
}

func (b *Buffer) flushSilence(generation int) {
	b.mu.Lock()
	if b.closed || generation != b.silenceGen {
		b.mu.Unlock()
		return
	}

	labels := b.sentence
	b.sentence = nil
	b.lastAcceptedLabel = ""
	b.silenceTimer = nil
	onSentence := b.onSentence
	b.mu.Unlock()

	if onSentence != nil && len(labels) > 0 {
		onSentence(labels)
	}
}

// History returns a copy of the bounded accepted-gesture history, oldest
// first.
func (b *Buffer) History() []Accepted {
	b.mu.Lock()
	defer b.mu.Unlock()

	history := make([]Accepted, len(b.history))
	copy(history, b.history)
	return history
}

// Sentence returns a copy of the labels accepted since the last silence
// reset, oldest first.
func (b *Buffer) Sentence() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	sentence := make([]string, len(b.sentence))
	copy(sentence, b.sentence)
	return sentence
}

// SentenceHint returns the current sentence run as a single space-joined
// string, e.g. "ME GO STORE".
func (b *Buffer) SentenceHint() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return strings.Join(b.sentence, " ")
}

// LastAcceptedLabel returns the label currently suppressing duplicates, or an
// empty string after a silence reset.
func (b *Buffer) LastAcceptedLabel() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.lastAcceptedLabel
}

// Reset clears history, the sentence run and the duplicate suppression label,
// and cancels any pending silence timer without delivering its sentence.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetLocked()
}

// resetLocked is a version of [Buffer.Reset] that is safe to call from a
// locked context.
func (b *Buffer) resetLocked() {
	if b.silenceTimer != nil {
		b.silenceTimer.Stop()
		b.silenceTimer = nil
	}
	b.silenceGen++
	b.history = nil
	b.sentence = nil
	b.lastAcceptedLabel = ""
}

// Close resets the buffer and rejects all further observations.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.resetLocked()
}
