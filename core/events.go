package interpretation

import (
	"errors"
	"strings"

	"github.com/Marophobia/signsense/core/events"
	"github.com/Marophobia/signsense/core/gesture"
	"github.com/Marophobia/signsense/core/stream"
)

// HandleEvent routes one feed event into the session's gesture buffer,
// transcript and status board. The transport calls it for every pushed
// event, it can also be called directly to feed a detached session.
func (s *Session) HandleEvent(event stream.Event) {
	// A message arriving proves the capture link is alive. An explicit
	// status update below still overrides this.
	s.status.Apply(map[Stage]Status{StageCapture: StatusConnected})

	switch typedEvent := event.(type) {
	case stream.GestureEvent:
		s.status.NoteGesture()
		s.buffer.Accept(gesture.Observation{
			Label:      typedEvent.Label,
			Confidence: typedEvent.Confidence,
			At:         typedEvent.At,
		})

	case stream.TranscriptEvent:
		text := strings.TrimSpace(typedEvent.Text)
		if text == "" {
			return
		}
		s.status.NoteTranscript()
		entry := s.transcript.Append(text, typedEvent.Partial)
		s.emit(events.NewTranscriptEntryAdded(entry.ID, entry.Text, entry.Partial))

	case stream.StatusEvent:
		update := make(map[Stage]Status, len(typedEvent.Stages))
		for stage, status := range typedEvent.Stages {
			update[Stage(stage)] = Status(status)
		}
		s.status.Apply(update)

	case stream.ErrorEvent:
		s.status.NoteError()
		s.mu.Lock()
		s.lastError = errors.New(typedEvent.Message)
		s.mu.Unlock()
		s.emit(events.NewSessionError(typedEvent.Message))
	}
}

func (s *Session) emit(event events.Event) {
	s.mu.Lock()
	emitEvent := s.emitEvent
	s.mu.Unlock()

	emitEvent(event)
}
