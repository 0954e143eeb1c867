package events

const (
	// KindSessionStateChanged identifies session lifecycle transitions.
	KindSessionStateChanged Kind = "session.state_changed"
	// KindSessionError identifies user-visible session failures.
	KindSessionError Kind = "session.error"
)

// SessionStateChanged marks a session lifecycle transition.
type SessionStateChanged struct {
	Base
	State string
}

// NewSessionStateChanged creates a session state transition event.
func NewSessionStateChanged(state string) SessionStateChanged {
	return SessionStateChanged{Base: NewBase(KindSessionStateChanged), State: state}
}

// SessionError carries a user-visible session failure message.
type SessionError struct {
	Base
	Message string
}

// NewSessionError creates a session error event.
func NewSessionError(message string) SessionError {
	return SessionError{Base: NewBase(KindSessionError), Message: message}
}
