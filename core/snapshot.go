package interpretation

import "github.com/Marophobia/signsense/core/gesture"

// SessionV1 is a point-in-time view of a session for presentation layers.
type SessionV1 struct {
	State          State
	SessionID      string
	Transcript     []TranscriptEntry
	GestureHistory []gesture.Accepted
	Pipeline       map[Stage]Status
	LastError      string
}

// SessionV1 returns a point-in-time snapshot of session state.
func (s *Session) SessionV1() SessionV1 {
	s.mu.Lock()
	state := s.state
	sessionID := s.sessionID
	lastError := ""
	if s.lastError != nil {
		lastError = s.lastError.Error()
	}
	s.mu.Unlock()

	return SessionV1{
		State:          state,
		SessionID:      sessionID,
		Transcript:     s.transcript.Entries(),
		GestureHistory: s.buffer.History(),
		Pipeline:       s.status.Snapshot(),
		LastError:      lastError,
	}
}
