package interpretation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Marophobia/signsense/core/controlplane"
	"github.com/Marophobia/signsense/core/events"
	"github.com/Marophobia/signsense/core/gesture"
	"github.com/Marophobia/signsense/core/stream"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateActive   State = "active"
	StateStopping State = "stopping"
	StateError    State = "error"
)

var (
	// ErrSessionActive is returned by Start when the session is not idle.
	ErrSessionActive = errors.New("session already started")
	// ErrStartAborted is returned by Start when a concurrent Stop tore the
	// session down while the start sequence was still in flight.
	ErrStartAborted = errors.New("session start aborted")
)

// Session owns the lifecycle of one interpretation session: creating it,
// starting its remote agent, consuming its event feed and exposing the
// composed state to a presentation layer.
//
// The transport connection and the session id are owned exclusively by the
// session for its lifetime. Incoming events are processed strictly in
// arrival order.
type Session struct {
	mu sync.Mutex

	state       State
	sessionID   string
	sessionType string
	userID      string
	userName    string
	lastError   error

	buffer     *gesture.Buffer
	status     *StatusBoard
	transcript *TranscriptLog

	// controlPlane is the facade used to handle optional control-plane
	// wiring.
	controlPlane controlPlane
	// feed is the facade used to normalize event-feed behavior.
	feed eventFeed

	bufferOptions []gesture.BufferOption
	statusOptions []BoardOption

	feedBackoffBase time.Duration
	feedBackoffCap  time.Duration
	feedMaxAttempts int

	emitEvent eventEmitter

	closeOnce   sync.Once
	baseContext context.Context
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		state:       StateIdle,
		sessionType: "default",
		userID:      "guest",
		emitEvent:   noopEventEmitter,
		baseContext: context.Background(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.buffer = gesture.NewBuffer(append(s.bufferOptions,
		gesture.WithAcceptedCallback(func(accepted gesture.Accepted) {
			s.emit(events.NewGestureAccepted(accepted.Label, accepted.Confidence))
		}),
		gesture.WithUnclearCallback(func(confidence float64) {
			s.emit(events.NewGestureUnclear(confidence))
		}),
		gesture.WithSentenceCallback(func(labels []string) {
			s.emit(events.NewSentenceFlushed(labels))
		}),
	)...)

	s.status = NewStatusBoard(append(s.statusOptions,
		WithChangeCallback(func(stages map[Stage]Status) {
			converted := make(map[string]string, len(stages))
			for stage, status := range stages {
				converted[string(stage)] = string(status)
			}
			s.emit(events.NewStatusUpdated(converted))
		}),
	)...)

	s.transcript = &TranscriptLog{}

	return s
}

// Start drives the session from idle to active: create the session, start
// its agent, then open the event feed. A failing step unwinds whatever came
// before it and settles back at idle with the error retained; a concurrent
// Stop aborts the sequence with [ErrStartAborted].
func (s *Session) Start(ctx context.Context, opts ...StartOption) error {
	ctx, span := tracer.Start(ctx, "start session")
	defer span.End()

	options := StartOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w (state %q)", ErrSessionActive, state)
	}
	s.state = StateStarting
	s.lastError = nil
	s.emitEvent = newCallbackEventEmitter(options)
	s.baseContext = ctx
	userID := s.userID
	userName := s.userName
	sessionType := s.sessionType
	emitEvent := s.emitEvent
	s.mu.Unlock()
	emitEvent(events.NewSessionStateChanged(string(StateStarting)))

	response, err := s.controlPlane.CreateSession(ctx, controlplane.CreateSessionRequest{
		UserID:      userID,
		DisplayName: userName,
	})
	if err != nil {
		return s.failStart(span, fmt.Errorf("failed to create session: %w", err), "")
	}

	sessionID := response.SessionID
	if response.SessionType != "" {
		sessionType = response.SessionType
	}

	s.mu.Lock()
	if s.state != StateStarting {
		s.mu.Unlock()
		return ErrStartAborted
	}
	s.sessionID = sessionID
	s.sessionType = sessionType
	s.mu.Unlock()

	if _, err := s.controlPlane.StartAgent(ctx, sessionID, sessionType); err != nil {
		return s.failStart(span, fmt.Errorf("failed to start agent: %w", err), sessionID)
	}

	if s.abortIfStopped(ctx, sessionID, false) {
		return ErrStartAborted
	}

	openOpts := []stream.OpenOption{
		stream.WithEventCallback(s.HandleEvent),
		stream.WithErrorCallback(s.handleFeedError),
	}
	if s.feedBackoffBase > 0 {
		openOpts = append(openOpts, stream.WithBackoff(s.feedBackoffBase, s.feedBackoffCap))
	}
	if s.feedMaxAttempts > 0 {
		openOpts = append(openOpts, stream.WithMaxAttempts(s.feedMaxAttempts))
	}
	if err := s.feed.Open(ctx, sessionID, openOpts...); err != nil {
		return s.failStart(span, fmt.Errorf("failed to open session feed: %w", err), sessionID)
	}

	if s.abortIfStopped(ctx, sessionID, true) {
		return ErrStartAborted
	}

	s.status.Apply(map[Stage]Status{
		StageCapture:    StatusConnected,
		StageGesture:    StatusReady,
		StageTranscript: StatusReady,
	})

	s.mu.Lock()
	if s.state != StateStarting {
		s.mu.Unlock()
		s.unwind(ctx, sessionID, true)
		return ErrStartAborted
	}
	s.state = StateActive
	emitEvent = s.emitEvent
	s.mu.Unlock()
	emitEvent(events.NewSessionStateChanged(string(StateActive)))

	return nil
}

// failStart unwinds a partially started session and settles back at idle
// with the error retained. compensateSessionID names the session whose
// agent may have been left running by the failed call.
func (s *Session) failStart(span trace.Span, cause error, compensateSessionID string) error {
	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())

	if compensateSessionID != "" {
		if err := s.controlPlane.StopAgent(s.baseContext, compensateSessionID); err != nil {
			log.Println("Warning: failed to stop agent while unwinding start:", err)
		}
	}

	s.mu.Lock()
	if s.state != StateStarting {
		// A concurrent stop already took over the teardown.
		s.mu.Unlock()
		return ErrStartAborted
	}
	s.state = StateIdle
	s.sessionID = ""
	s.lastError = cause
	emitEvent := s.emitEvent
	s.mu.Unlock()

	emitEvent(events.NewSessionError(cause.Error()))
	emitEvent(events.NewSessionStateChanged(string(StateIdle)))

	return cause
}

// abortIfStopped checks whether a concurrent Stop ended the start sequence,
// and if so releases whatever the sequence had already acquired.
func (s *Session) abortIfStopped(ctx context.Context, sessionID string, feedOpen bool) bool {
	s.mu.Lock()
	stillStarting := s.state == StateStarting
	s.mu.Unlock()

	if stillStarting {
		return false
	}
	s.unwind(ctx, sessionID, feedOpen)
	return true
}

func (s *Session) unwind(ctx context.Context, sessionID string, feedOpen bool) {
	if feedOpen {
		if err := s.feed.Close(); err != nil {
			log.Println("Warning: failed to close session feed:", err)
		}
	}
	if sessionID != "" {
		if err := s.controlPlane.StopAgent(ctx, sessionID); err != nil {
			log.Println("Warning: failed to stop agent:", err)
		}
	}
}

// Stop tears the session down: close the feed, stop the agent, clear the
// live gesture, status and transcript state. Teardown is best-effort,
// failures are logged and never keep the session from reaching idle.
func (s *Session) Stop(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "stop session")
	defer span.End()

	s.mu.Lock()
	if s.state != StateStarting && s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	sessionID := s.sessionID
	emitEvent := s.emitEvent
	s.mu.Unlock()
	emitEvent(events.NewSessionStateChanged(string(StateStopping)))

	if err := s.feed.Close(); err != nil {
		log.Println("Warning: failed to close session feed:", err)
	}
	if sessionID != "" {
		if err := s.controlPlane.StopAgent(ctx, sessionID); err != nil {
			log.Println("Warning: failed to stop agent:", err)
		}
	}

	s.buffer.Reset()
	s.status.Reset()
	s.transcript.Clear()

	s.mu.Lock()
	s.state = StateIdle
	s.sessionID = ""
	emitEvent = s.emitEvent
	s.mu.Unlock()
	emitEvent(events.NewSessionStateChanged(string(StateIdle)))
}

// terminalFailure handles the feed reporting an unrecoverable transport
// loss: surface the error, tear the session down and settle at idle. Unlike
// Stop it keeps the transcript and the error stages visible.
func (s *Session) terminalFailure(cause error) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.state = StateError
	s.lastError = cause
	sessionID := s.sessionID
	emitEvent := s.emitEvent
	s.mu.Unlock()

	emitEvent(events.NewSessionError(cause.Error()))
	emitEvent(events.NewSessionStateChanged(string(StateError)))

	s.status.NoteError()

	if err := s.feed.Close(); err != nil {
		log.Println("Warning: failed to close session feed:", err)
	}
	if sessionID != "" {
		if err := s.controlPlane.StopAgent(s.baseContext, sessionID); err != nil {
			log.Println("Warning: failed to stop agent:", err)
		}
	}
	s.buffer.Reset()

	s.mu.Lock()
	s.state = StateIdle
	s.sessionID = ""
	emitEvent = s.emitEvent
	s.mu.Unlock()
	emitEvent(events.NewSessionStateChanged(string(StateIdle)))
}

func (s *Session) handleFeedError(err error) {
	if errors.Is(err, stream.ErrRetriesExhausted) {
		s.terminalFailure(err)
		return
	}

	log.Println("Warning:", err)
	s.status.Apply(map[Stage]Status{StageCapture: StatusDisconnected})
}

// Close disposes the session exactly once: a best-effort stop plus release
// of the gesture buffer and status board. Safe on a session that never
// started and safe to call repeatedly.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.Stop(context.Background())
		s.buffer.Close()
		s.status.Close()
	})
}

// DismissError clears the retained error message. The next Start clears it
// as well.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionID
}

// LastError returns the most recent fatal or pushed error, nil once
// dismissed or after a fresh start.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastError
}

// Transcript returns a copy of the transcript entries, oldest first.
func (s *Session) Transcript() []TranscriptEntry {
	return s.transcript.Entries()
}

// ClearTranscript drops the transcript without touching the rest of the
// session.
func (s *Session) ClearTranscript() {
	s.transcript.Clear()
}

// GestureHistory returns a copy of the accepted gesture history.
func (s *Session) GestureHistory() []gesture.Accepted {
	return s.buffer.History()
}

// SentenceHint returns the in-progress gesture run as a space-joined
// string.
func (s *Session) SentenceHint() string {
	return s.buffer.SentenceHint()
}

// Pipeline returns the current pipeline stage map.
func (s *Session) Pipeline() map[Stage]Status {
	return s.status.Snapshot()
}
