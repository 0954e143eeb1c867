package interpretation

import events "github.com/Marophobia/signsense/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts StartOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.SessionStateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(State(typedEvent.State))
			}
		case events.SessionError:
			if opts.onSessionError != nil {
				opts.onSessionError(typedEvent.Message)
			}
		case events.GestureAccepted:
			if opts.onGesture != nil {
				opts.onGesture(typedEvent.Label, typedEvent.Confidence)
			}
		case events.GestureUnclear:
			if opts.onUnclearGesture != nil {
				opts.onUnclearGesture(typedEvent.Confidence)
			}
		case events.SentenceFlushed:
			if opts.onSentenceFlushed != nil {
				opts.onSentenceFlushed(typedEvent.Labels)
			}
		case events.TranscriptEntryAdded:
			if opts.onTranscriptEntry != nil {
				opts.onTranscriptEntry(TranscriptEntry{
					ID:      typedEvent.ID,
					Text:    typedEvent.Text,
					At:      typedEvent.Timestamp(),
					Partial: typedEvent.Partial,
				})
			}
		case events.StatusUpdated:
			if opts.onStatusChanged != nil {
				stages := make(map[Stage]Status, len(typedEvent.Stages))
				for stage, status := range typedEvent.Stages {
					stages[Stage(stage)] = Status(status)
				}
				opts.onStatusChanged(stages)
			}
		}
	}
}
