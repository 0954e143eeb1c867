package events

const (
	// KindGestureAccepted identifies gestures that entered history and the
	// active sentence.
	KindGestureAccepted Kind = "gesture.accepted"
	// KindGestureUnclear identifies below-threshold classifications.
	KindGestureUnclear Kind = "gesture.unclear"
	// KindSentenceFlushed identifies sentence runs closed by silence.
	KindSentenceFlushed Kind = "gesture.sentence_flushed"
)

// GestureAccepted carries a gesture that passed confidence filtering and
// duplicate debouncing.
type GestureAccepted struct {
	Base
	Label      string
	Confidence float64
}

// NewGestureAccepted creates an accepted gesture event.
func NewGestureAccepted(label string, confidence float64) GestureAccepted {
	return GestureAccepted{Base: NewBase(KindGestureAccepted), Label: label, Confidence: confidence}
}

// GestureUnclear marks a classification that fell below the confidence
// threshold. It carries no label because none was trusted.
type GestureUnclear struct {
	Base
	Confidence float64
}

// NewGestureUnclear creates an unclear gesture event.
func NewGestureUnclear(confidence float64) GestureUnclear {
	return GestureUnclear{Base: NewBase(KindGestureUnclear), Confidence: confidence}
}

// SentenceFlushed carries the label run that was closed by a silence window.
type SentenceFlushed struct {
	Base
	Labels []string
}

// NewSentenceFlushed creates a sentence flushed event.
func NewSentenceFlushed(labels []string) SentenceFlushed {
	return SentenceFlushed{Base: NewBase(KindSentenceFlushed), Labels: labels}
}
