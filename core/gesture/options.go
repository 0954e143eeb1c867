package gesture

import "time"

type BufferOption func(*Buffer)

// WithConfidenceThreshold overrides the minimum confidence an observation
// needs to be considered for acceptance.
func WithConfidenceThreshold(threshold float64) BufferOption {
	return func(b *Buffer) {
		b.confidenceThreshold = threshold
	}
}

// WithSilenceTimeout overrides the idle window after which the sentence run
// is closed and handed to the sentence callback.
func WithSilenceTimeout(timeout time.Duration) BufferOption {
	return func(b *Buffer) {
		b.silenceTimeout = timeout
	}
}

// WithHistorySize overrides the number of accepted gestures retained, oldest
// evicted first.
func WithHistorySize(size int) BufferOption {
	return func(b *Buffer) {
		b.historySize = size
	}
}

// WithSentenceSize overrides the maximum number of labels retained in a
// single sentence run.
func WithSentenceSize(size int) BufferOption {
	return func(b *Buffer) {
		b.sentenceSize = size
	}
}

// WithAcceptedCallback registers a callback for gestures that entered
// history. It runs outside the buffer's lock.
func WithAcceptedCallback(callback func(accepted Accepted)) BufferOption {
	return func(b *Buffer) {
		b.onAccepted = callback
	}
}

// WithUnclearCallback registers a callback for observations rejected by the
// confidence threshold or the unclear sentinel.
func WithUnclearCallback(callback func(confidence float64)) BufferOption {
	return func(b *Buffer) {
		b.onUnclear = callback
	}
}

// WithSentenceCallback registers a callback for sentence runs closed by a
// silence window. Runs marked empty by a reset are not delivered.
func WithSentenceCallback(callback func(labels []string)) BufferOption {
	return func(b *Buffer) {
		b.onSentence = callback
	}
}
