package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is one decoded video frame from the bridge, JPEG-encoded.
type Frame struct {
	Data []byte
	At   time.Time
}

// AudioChunk is one run of pcm16 samples from the bridge.
type AudioChunk struct {
	Data       []byte
	SampleRate int
}

// Client pulls session media from the media bridge over a websocket: video
// frames for classification and audio chunks for captioning.
type Client struct {
	bridgeURL string
	apiKey    string

	connMu sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func NewClient(bridgeURL string, apiKey string) *Client {
	return &Client{bridgeURL: bridgeURL, apiKey: apiKey}
}

type ConnectOptions struct {
	Token string

	FrameCallback func(frame Frame)
	AudioCallback func(chunk AudioChunk)
	// CloseCallback fires once when the bridge connection ends, with nil on
	// a clean remote close.
	CloseCallback func(err error)
}

type ConnectOption func(*ConnectOptions)

func WithToken(token string) ConnectOption {
	return func(o *ConnectOptions) {
		o.Token = token
	}
}

func WithFrameCallback(callback func(frame Frame)) ConnectOption {
	return func(o *ConnectOptions) {
		o.FrameCallback = callback
	}
}

func WithAudioCallback(callback func(chunk AudioChunk)) ConnectOption {
	return func(o *ConnectOptions) {
		o.AudioCallback = callback
	}
}

func WithCloseCallback(callback func(err error)) ConnectOption {
	return func(o *ConnectOptions) {
		o.CloseCallback = callback
	}
}

// Connect dials the bridge for one session and starts delivering media to
// the configured callbacks.
func (c *Client) Connect(ctx context.Context, sessionID string, opts ...ConnectOption) error {
	options := &ConnectOptions{}
	for _, opt := range opts {
		opt(options)
	}

	bridgeUrl, err := url.Parse(c.bridgeURL)
	if err != nil {
		return fmt.Errorf("invalid media bridge url: %w", err)
	}
	queryParams := bridgeUrl.Query()
	queryParams.Set("api_key", c.apiKey)
	queryParams.Set("session_id", sessionID)
	bridgeUrl.RawQuery = queryParams.Encode()

	header := http.Header{}
	if options.Token != "" {
		header.Set("Authorization", "Bearer "+options.Token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, bridgeUrl.String(), header)
	if err != nil {
		return fmt.Errorf("failed to open socket connection to media bridge: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	go c.readAndProcessMessages(conn, *options)

	return nil
}

// Close ends the bridge connection. The close callback still fires from the
// read loop.
func (c *Client) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	c.closed = true
	if c.conn == nil {
		return nil
	}

	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.conn = nil
	return err
}

type bridgeMessage struct {
	Type       string  `json:"type"`
	Data       string  `json:"data"`
	Timestamp  float64 `json:"timestamp,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"`
}

func (c *Client) readAndProcessMessages(conn *websocket.Conn, options ConnectOptions) {
	var closeErr error
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				closeErr = err
			}
			break
		}

		var parsed bridgeMessage
		if err := json.Unmarshal(msg, &parsed); err != nil {
			log.Println("Failed to unmarshal media bridge message", "error", err)
			continue
		}

		switch parsed.Type {
		case "frame":
			data, err := base64.StdEncoding.DecodeString(parsed.Data)
			if err != nil {
				log.Println("Failed to decode media bridge frame", "error", err)
				continue
			}
			if options.FrameCallback != nil {
				options.FrameCallback(Frame{Data: data, At: unixTime(parsed.Timestamp)})
			}

		case "audio":
			data, err := base64.StdEncoding.DecodeString(parsed.Data)
			if err != nil {
				log.Println("Failed to decode media bridge audio", "error", err)
				continue
			}
			sampleRate := parsed.SampleRate
			if sampleRate == 0 {
				sampleRate = 16000
			}
			if options.AudioCallback != nil {
				options.AudioCallback(AudioChunk{Data: data, SampleRate: sampleRate})
			}
		}
	}

	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	if c.closed {
		// The agent hung up on purpose, the read error is just fallout.
		closeErr = nil
	}
	c.connMu.Unlock()
	conn.Close()

	if options.CloseCallback != nil {
		options.CloseCallback(closeErr)
	}
}

func unixTime(seconds float64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}
