package interpretation

import (
	"context"

	"github.com/Marophobia/signsense/core/stream"
)

// eventFeed is the facade used to handle optional feed wiring. Unconfigured
// it opens nothing and events only arrive through [Session.HandleEvent].
type eventFeed struct {
	client EventFeed
}

func (f *eventFeed) set(client EventFeed) {
	if f != nil {
		f.client = client
	}
}

func (f *eventFeed) isConfigured() bool {
	return f != nil && f.client != nil
}

func (f *eventFeed) Open(ctx context.Context, sessionID string, opts ...stream.OpenOption) error {
	if !f.isConfigured() {
		return nil
	}

	return f.client.Open(ctx, sessionID, opts...)
}

func (f *eventFeed) Close() error {
	if !f.isConfigured() {
		return nil
	}

	return f.client.Close()
}
