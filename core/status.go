package interpretation

import (
	"sync"
	"time"
)

type Stage string

const (
	StageCapture    Stage = "capture"
	StageGesture    Stage = "gesture"
	StageTranscript Stage = "transcript"
)

type Status string

const (
	StatusReady        Status = "ready"
	StatusProcessing   Status = "processing"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

const (
	defaultGestureDecay    = 2000 * time.Millisecond
	defaultTranscriptDecay = 3000 * time.Millisecond
)

// StatusBoard derives debounced per-stage pipeline indicators from a bursty
// event flow. Momentary activity notes flip a stage to processing and decay
// back to ready unless renewed, authoritative updates merge over the board
// and cancel the decay of the stages they touch.
type StatusBoard struct {
	mu sync.Mutex

	stages map[Stage]Status
	timers map[Stage]*time.Timer
	gens   map[Stage]int
	closed bool

	gestureDecay    time.Duration
	transcriptDecay time.Duration

	onChange func(stages map[Stage]Status)
}

type BoardOption func(*StatusBoard)

// WithGestureDecay overrides how long the gesture stage stays in processing
// after the last gesture note.
func WithGestureDecay(decay time.Duration) BoardOption {
	return func(b *StatusBoard) {
		b.gestureDecay = decay
	}
}

// WithTranscriptDecay overrides how long the transcript stage stays in
// processing after the last transcript note.
func WithTranscriptDecay(decay time.Duration) BoardOption {
	return func(b *StatusBoard) {
		b.transcriptDecay = decay
	}
}

// WithChangeCallback registers a callback receiving the full stage map after
// every effective change. It runs outside the board's lock.
func WithChangeCallback(callback func(stages map[Stage]Status)) BoardOption {
	return func(b *StatusBoard) {
		b.onChange = callback
	}
}

func NewStatusBoard(opts ...BoardOption) *StatusBoard {
	board := &StatusBoard{
		stages: map[Stage]Status{
			StageCapture:    StatusDisconnected,
			StageGesture:    StatusReady,
			StageTranscript: StatusReady,
		},
		timers:          map[Stage]*time.Timer{},
		gens:            map[Stage]int{},
		gestureDecay:    defaultGestureDecay,
		transcriptDecay: defaultTranscriptDecay,
	}

	for _, opt := range opts {
		opt(board)
	}

	return board
}

// NoteGesture marks the gesture stage as processing, decaying back to ready
// unless another note or an authoritative update lands first.
func (b *StatusBoard) NoteGesture() {
	b.noteStage(StageGesture, b.gestureDecay)
}

// NoteTranscript marks the transcript stage as processing with its own decay
// window.
func (b *StatusBoard) NoteTranscript() {
	b.noteStage(StageTranscript, b.transcriptDecay)
}

func (b *StatusBoard) noteStage(stage Stage, decay time.Duration) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}

	changed := b.stages[stage] != StatusProcessing
	b.stages[stage] = StatusProcessing

	if timer := b.timers[stage]; timer != nil {
		timer.Stop()
	}
	b.gens[stage]++
	generation := b.gens[stage]
	b.timers[stage] = time.AfterFunc(decay, func() {
		b.decayStage(stage, generation)
	})

	b.notifyAndUnlock(changed)
}

func (b *StatusBoard) decayStage(stage Stage, generation int) {
	b.mu.Lock()
	if b.closed || b.gens[stage] != generation {
		b.mu.Unlock()
		return
	}

	b.timers[stage] = nil
	changed := b.stages[stage] != StatusReady
	b.stages[stage] = StatusReady

	b.notifyAndUnlock(changed)
}

// Apply merges an authoritative stage update over the board, canceling the
// pending decay of every stage it names.
func (b *StatusBoard) Apply(update map[Stage]Status) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}

	changed := false
	for stage, status := range update {
		if b.stages[stage] != status {
			b.stages[stage] = status
			changed = true
		}
		b.cancelDecayLocked(stage)
	}

	b.notifyAndUnlock(changed)
}

// NoteError forces the gesture and transcript stages into error. The error
// sticks until a later note, update or reset moves the stage again.
func (b *StatusBoard) NoteError() {
	b.Apply(map[Stage]Status{
		StageGesture:    StatusError,
		StageTranscript: StatusError,
	})
}

// Reset returns the board to its idle baseline and cancels all pending decay
// timers.
func (b *StatusBoard) Reset() {
	b.Apply(map[Stage]Status{
		StageCapture:    StatusDisconnected,
		StageGesture:    StatusReady,
		StageTranscript: StatusReady,
	})
}

// Snapshot returns a copy of the current stage map.
func (b *StatusBoard) Snapshot() map[Stage]Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.snapshotLocked()
}

// Close cancels all timers and ignores every later mutation.
func (b *StatusBoard) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for stage := range b.timers {
		b.cancelDecayLocked(stage)
	}
}

func (b *StatusBoard) cancelDecayLocked(stage Stage) {
	if timer := b.timers[stage]; timer != nil {
		timer.Stop()
		b.timers[stage] = nil
	}
	b.gens[stage]++
}

func (b *StatusBoard) snapshotLocked() map[Stage]Status {
	stages := make(map[Stage]Status, len(b.stages))
	for stage, status := range b.stages {
		stages[stage] = status
	}
	return stages
}

// notifyAndUnlock releases the board's lock and, if anything changed, delivers
// a snapshot to the change callback.
func (b *StatusBoard) notifyAndUnlock(changed bool) {
	var snapshot map[Stage]Status
	onChange := b.onChange
	if changed && onChange != nil {
		snapshot = b.snapshotLocked()
	}
	b.mu.Unlock()

	if changed && onChange != nil {
		onChange(snapshot)
	}
}
