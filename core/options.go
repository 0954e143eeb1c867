package interpretation

import (
	"context"
	"time"

	"github.com/Marophobia/signsense/core/controlplane"
	"github.com/Marophobia/signsense/core/gesture"
	"github.com/Marophobia/signsense/core/stream"
)

type SessionOption func(*Session)

type ControlPlane interface {
	CreateSession(ctx context.Context, request controlplane.CreateSessionRequest) (*controlplane.CreateSessionResponse, error)
	StartAgent(ctx context.Context, sessionID string, sessionType string) (*controlplane.AgentStatus, error)
	StopAgent(ctx context.Context, sessionID string) error
}

// WithControlPlaneClient wires the client used to create sessions and manage
// their agents. Without one the session runs detached: ids are minted
// locally and agent calls are skipped.
func WithControlPlaneClient(client ControlPlane) SessionOption {
	return func(s *Session) {
		s.controlPlane.set(client)
	}
}

type EventFeed interface {
	Open(ctx context.Context, sessionID string, opts ...stream.OpenOption) error
	Close() error
}

// WithEventFeedClient wires the client used to consume the session's pushed
// event feed. Without one no feed is opened and events only arrive through
// [Session.HandleEvent].
func WithEventFeedClient(client EventFeed) SessionOption {
	return func(s *Session) {
		s.feed.set(client)
	}
}

// WithUser sets the identity sent when creating sessions.
func WithUser(id string, displayName string) SessionOption {
	return func(s *Session) {
		s.userID = id
		s.userName = displayName
	}
}

func WithSessionType(sessionType string) SessionOption {
	return func(s *Session) {
		s.sessionType = sessionType
	}
}

// WithGestureBufferOptions tunes the session's gesture buffer (threshold,
// silence window, capacities). Callback options are reserved for the
// session's own wiring and are overridden.
func WithGestureBufferOptions(opts ...gesture.BufferOption) SessionOption {
	return func(s *Session) {
		s.bufferOptions = append(s.bufferOptions, opts...)
	}
}

// WithStatusBoardOptions tunes the session's status board (decay windows).
func WithStatusBoardOptions(opts ...BoardOption) SessionOption {
	return func(s *Session) {
		s.statusOptions = append(s.statusOptions, opts...)
	}
}

// WithFeedBackoff overrides the feed reconnect schedule: delays double from
// base up to limit, with maxAttempts reconnects before the failure is
// terminal.
func WithFeedBackoff(base time.Duration, limit time.Duration, maxAttempts int) SessionOption {
	return func(s *Session) {
		s.feedBackoffBase = base
		s.feedBackoffCap = limit
		s.feedMaxAttempts = maxAttempts
	}
}

type StartOptions struct {
	onStateChanged    func(state State)
	onGesture         func(label string, confidence float64)
	onUnclearGesture  func(confidence float64)
	onSentenceFlushed func(labels []string)
	onTranscriptEntry func(entry TranscriptEntry)
	onStatusChanged   func(stages map[Stage]Status)
	onSessionError    func(message string)
}

type StartOption func(*StartOptions)

// WithStateCallback registers a callback for session state transitions.
func WithStateCallback(callback func(state State)) StartOption {
	return func(o *StartOptions) {
		o.onStateChanged = callback
	}
}

// WithGestureCallback registers a callback for gestures accepted into the
// session's history.
//
// Observations rejected by the confidence threshold or collapsed as repeats
// do not trigger this callback.
func WithGestureCallback(callback func(label string, confidence float64)) StartOption {
	return func(o *StartOptions) {
		o.onGesture = callback
	}
}

// WithUnclearGestureCallback registers a callback for below-threshold
// observations, carrying only the rejected confidence.
func WithUnclearGestureCallback(callback func(confidence float64)) StartOption {
	return func(o *StartOptions) {
		o.onUnclearGesture = callback
	}
}

// WithSentenceCallback registers a callback for gesture runs closed by a
// silence window.
func WithSentenceCallback(callback func(labels []string)) StartOption {
	return func(o *StartOptions) {
		o.onSentenceFlushed = callback
	}
}

// WithTranscriptCallback registers a callback for entries appended to the
// session transcript.
func WithTranscriptCallback(callback func(entry TranscriptEntry)) StartOption {
	return func(o *StartOptions) {
		o.onTranscriptEntry = callback
	}
}

// WithStatusCallback registers a callback for pipeline stage changes. It
// receives the full stage map after every change.
func WithStatusCallback(callback func(stages map[Stage]Status)) StartOption {
	return func(o *StartOptions) {
		o.onStatusChanged = callback
	}
}

// WithSessionErrorCallback registers a callback for user-visible session
// errors, both setup failures and errors pushed over the feed.
func WithSessionErrorCallback(callback func(message string)) StartOption {
	return func(o *StartOptions) {
		o.onSessionError = callback
	}
}
