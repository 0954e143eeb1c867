package stream

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Event is a feed message normalized into its internal form. Wire-level
// fallbacks and optional fields never leak past the decoder.
type Event interface {
	feedEvent()
}

// GestureEvent is a single classified gesture pushed by the session feed.
type GestureEvent struct {
	Label      string
	Confidence float64
	At         time.Time
}

// TranscriptEvent is an interpreted sentence pushed by the session feed.
// Partial entries are provisional and are replaced by the next entry for the
// same utterance.
type TranscriptEvent struct {
	Text    string
	Partial bool
	At      time.Time
}

// StatusEvent is a partial pipeline stage update. Stages absent from the map
// are left untouched by consumers.
type StatusEvent struct {
	Stages map[string]string
}

// ErrorEvent is a pipeline failure reported by the session feed.
type ErrorEvent struct {
	Message string
}

func (GestureEvent) feedEvent()    {}
func (TranscriptEvent) feedEvent() {}
func (StatusEvent) feedEvent()     {}
func (ErrorEvent) feedEvent()      {}

type wireMessage struct {
	Type       string          `json:"type"`
	Gesture    string          `json:"gesture,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Sentence   *string         `json:"sentence,omitempty"`
	Partial    bool            `json:"partial,omitempty"`
	Timestamp  float64         `json:"timestamp,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// decodeMessage parses one feed payload into its normalized event. Pings
// decode to (nil, nil) and are meant to be dropped by the caller.
func decodeMessage(payload []byte) (Event, error) {
	var msg wireMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed message: %w", err)
	}

	switch msg.Type {
	case "gesture":
		return GestureEvent{
			Label:      msg.Gesture,
			Confidence: msg.Confidence,
			At:         unixTime(msg.Timestamp),
		}, nil

	case "transcript":
		// Older feeds nest the text under data.text; a top-level sentence
		// wins when both are present.
		text := ""
		if msg.Sentence != nil {
			text = *msg.Sentence
		} else if len(msg.Data) > 0 {
			var data struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transcript payload: %w", err)
			}
			text = data.Text
		}
		return TranscriptEvent{Text: text, Partial: msg.Partial, At: unixTime(msg.Timestamp)}, nil

	case "status":
		stages := map[string]string{}
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &stages); err != nil {
				return nil, fmt.Errorf("failed to unmarshal status payload: %w", err)
			}
		}
		return StatusEvent{Stages: stages}, nil

	case "error":
		var data struct {
			Message string `json:"message"`
		}
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal error payload: %w", err)
			}
		}
		return ErrorEvent{Message: data.Message}, nil

	case "ping":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown feed message type %q", msg.Type)
	}
}

func unixTime(seconds float64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
