package agent

import "time"

type Option func(*Agent)

// WithClassifier wires the frame classifier. Without one the agent ignores
// video frames.
func WithClassifier(classifier Classifier) Option {
	return func(a *Agent) {
		a.classifier = classifier
	}
}

// WithSentenceComposer wires the language model that turns sign runs into
// sentences. Without one runs are dropped after the compose window.
func WithSentenceComposer(composer SentenceComposer) Option {
	return func(a *Agent) {
		a.llm = composer
	}
}

// WithFrameSource wires the media bridge connection.
func WithFrameSource(source FrameSource) Option {
	return func(a *Agent) {
		a.frames = source
	}
}

// WithCaptionStreamer wires the optional voice captioning leg.
func WithCaptionStreamer(streamer CaptionStreamer) Option {
	return func(a *Agent) {
		a.captioner = streamer
	}
}

// WithPublisher registers the sink receiving the agent's feed payloads.
func WithPublisher(publish func(event any)) Option {
	return func(a *Agent) {
		a.publishEvent = publish
	}
}

// WithToken carries the session token presented to the media bridge.
func WithToken(token string) Option {
	return func(a *Agent) {
		a.token = token
	}
}

// WithConfidenceThreshold overrides the minimum confidence for accepting a
// classification.
func WithConfidenceThreshold(threshold float64) Option {
	return func(a *Agent) {
		a.threshold = threshold
	}
}

// WithFrameRate overrides how many frames per second are classified. Keep
// it at or below 10 to stay inside hosted inference rate limits.
func WithFrameRate(fps int) Option {
	return func(a *Agent) {
		if fps > 0 {
			a.frameInterval = time.Second / time.Duration(fps)
		}
	}
}

// WithMaxDuration overrides the session duration guard.
func WithMaxDuration(duration time.Duration) Option {
	return func(a *Agent) {
		a.maxDuration = duration
	}
}

// WithCaptionSampleRate overrides the sample rate announced to the
// captioning service.
func WithCaptionSampleRate(sampleRate int) Option {
	return func(a *Agent) {
		a.captionSampleRate = sampleRate
	}
}
