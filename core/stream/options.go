package stream

import (
	"errors"
	"time"
)

const (
	defaultBackoffBase = 1000 * time.Millisecond
	defaultBackoffCap  = 10 * time.Second
	defaultMaxAttempts = 5
)

// ErrRetriesExhausted is wrapped into the final error delivered through the
// error callback once every allowed reconnect attempt has failed.
var ErrRetriesExhausted = errors.New("reconnect attempts exhausted")

// OpenOptions configure a single feed subscription.
type OpenOptions struct {
	// EventCallback receives decoded feed events in arrival order, one at a
	// time from a single reader goroutine.
	EventCallback func(event Event)
	// ErrorCallback receives every transport failure. Transient failures are
	// followed by a scheduled reconnect, the terminal one wraps
	// [ErrRetriesExhausted] and is followed by the close callback.
	ErrorCallback func(err error)
	// CloseCallback fires exactly once when the feed will never deliver
	// again, whether closed explicitly or terminally failed.
	CloseCallback func()

	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxAttempts int
}

type OpenOption func(*OpenOptions)

func WithEventCallback(callback func(event Event)) OpenOption {
	return func(o *OpenOptions) {
		o.EventCallback = callback
	}
}

func WithErrorCallback(callback func(err error)) OpenOption {
	return func(o *OpenOptions) {
		o.ErrorCallback = callback
	}
}

func WithCloseCallback(callback func()) OpenOption {
	return func(o *OpenOptions) {
		o.CloseCallback = callback
	}
}

// WithBackoff overrides the reconnect delay curve. The delay for attempt n is
// base shifted left n times, capped at limit.
func WithBackoff(base time.Duration, limit time.Duration) OpenOption {
	return func(o *OpenOptions) {
		o.BackoffBase = base
		o.BackoffCap = limit
	}
}

// WithMaxAttempts overrides how many reconnects are tried before the feed
// reports a terminal failure.
func WithMaxAttempts(attempts int) OpenOption {
	return func(o *OpenOptions) {
		o.MaxAttempts = attempts
	}
}
