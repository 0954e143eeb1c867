package agent

import "time"

// Feed payloads mirror the session event stream wire format.

type gestureEvent struct {
	Type       string  `json:"type"`
	Gesture    string  `json:"gesture"`
	Confidence float64 `json:"confidence"`
	Timestamp  float64 `json:"timestamp"`
}

type transcriptEvent struct {
	Type      string  `json:"type"`
	Sentence  string  `json:"sentence"`
	Partial   bool    `json:"partial,omitempty"`
	Timestamp float64 `json:"timestamp"`
}

type statusEvent struct {
	Type string            `json:"type"`
	Data map[string]string `json:"data"`
}

type errorEvent struct {
	Type string           `json:"type"`
	Data errorEventDetail `json:"data"`
}

type errorEventDetail struct {
	Message string `json:"message"`
}

func (a *Agent) publishGesture(label string, confidence float64) {
	a.publish(gestureEvent{
		Type:       "gesture",
		Gesture:    label,
		Confidence: confidence,
		Timestamp:  unixSeconds(time.Now()),
	})
}

func (a *Agent) publishTranscript(sentence string) {
	a.publish(transcriptEvent{
		Type:      "transcript",
		Sentence:  sentence,
		Timestamp: unixSeconds(time.Now()),
	})
}

// publishPartialTranscript pushes a provisional caption that the next
// transcript event replaces.
func (a *Agent) publishPartialTranscript(sentence string) {
	a.publish(transcriptEvent{
		Type:      "transcript",
		Sentence:  sentence,
		Partial:   true,
		Timestamp: unixSeconds(time.Now()),
	})
}

func (a *Agent) publishStatus(stages map[string]string) {
	a.publish(statusEvent{Type: "status", Data: stages})
}

func (a *Agent) publishError(message string) {
	a.publish(errorEvent{Type: "error", Data: errorEventDetail{Message: message}})
}

func (a *Agent) publish(event any) {
	if a.publishEvent != nil {
		a.publishEvent(event)
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
