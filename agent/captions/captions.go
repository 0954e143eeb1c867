package captions

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultSampleRate = 16000

// Client streams session audio to Deepgram live transcription and hands the
// resulting captions back through callbacks.
type Client struct {
	apiKey string

	connMu sync.Mutex
	conn   *websocket.Conn

	lastMsgTs time.Time

	accumulatedCaption string
	unendedSegment     bool
}

func NewClient(apiKey string) *Client {
	return &Client{apiKey: apiKey}
}

type StreamOptions struct {
	SampleRate int

	// CaptionCallback receives one finished utterance at a time.
	CaptionCallback func(caption string)
	// InterimCaptionCallback receives in-progress segments that may still
	// change.
	InterimCaptionCallback func(caption string)
	SpeechStartedCallback  func()
	SpeechEndedCallback    func()
}

type StreamOption func(*StreamOptions)

func WithSampleRate(sampleRate int) StreamOption {
	return func(o *StreamOptions) {
		o.SampleRate = sampleRate
	}
}

func WithCaptionCallback(callback func(caption string)) StreamOption {
	return func(o *StreamOptions) {
		o.CaptionCallback = callback
	}
}

func WithInterimCaptionCallback(callback func(caption string)) StreamOption {
	return func(o *StreamOptions) {
		o.InterimCaptionCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) StreamOption {
	return func(o *StreamOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) StreamOption {
	return func(o *StreamOptions) {
		o.SpeechEndedCallback = callback
	}
}
