package stream

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

// Client opens server-sent event feeds for interpretation sessions. It keeps
// at most one live feed, events from it are decoded and delivered in arrival
// order by a single reader goroutine.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu   sync.Mutex
	feed *feed
}

// NewClient creates a feed client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
					return operationName + " " + request.URL.Path
				}),
			),
		},
	}
}

// Open subscribes to the event feed of a session. The initial connection is
// established synchronously and a failure to do so is returned without
// retrying. Failures after that reconnect with exponential backoff until the
// allowed attempts run out, at which point the error callback receives an
// error wrapping [ErrRetriesExhausted] and the feed closes itself.
func (c *Client) Open(ctx context.Context, sessionID string, opts ...OpenOption) error {
	options := &OpenOptions{
		BackoffBase: defaultBackoffBase,
		BackoffCap:  defaultBackoffCap,
		MaxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(options)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.feed != nil {
		return fmt.Errorf("feed already open for session %q", c.feed.sessionID)
	}

	feedCtx, cancel := context.WithCancel(ctx)
	newFeed := &feed{
		client:    c,
		sessionID: sessionID,
		options:   *options,
		ctx:       feedCtx,
		cancel:    cancel,
	}

	body, err := newFeed.connect()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to open session feed: %w", err)
	}

	newFeed.body = body
	c.feed = newFeed
	go newFeed.readLoop(body)

	return nil
}

// Close terminates the current feed, canceling any pending reconnect timer.
// It is safe to call repeatedly and with no feed open.
func (c *Client) Close() error {
	c.mu.Lock()
	activeFeed := c.feed
	c.mu.Unlock()

	if activeFeed != nil {
		activeFeed.close()
	}
	return nil
}

func (c *Client) clearFeed(f *feed) {
	c.mu.Lock()
	if c.feed == f {
		c.feed = nil
	}
	c.mu.Unlock()
}

type feed struct {
	client    *Client
	sessionID string
	options   OpenOptions

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once

	mu         sync.Mutex
	closed     bool
	attempt    int
	body       io.ReadCloser
	retryTimer *time.Timer
}

func (f *feed) connect() (io.ReadCloser, error) {
	ctx, span := tracer.Start(f.ctx, "connect session feed")
	defer span.End()

	url := fmt.Sprintf("%s/api/sessions/%s/events", f.client.baseURL, f.sessionID)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		recordedErr := fmt.Errorf("failed to create feed request: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return nil, recordedErr
	}
	request.Header.Set("Accept", "text/event-stream")

	response, err := f.client.httpClient.Do(request)
	if err != nil {
		recordedErr := fmt.Errorf("failed to connect to session feed: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return nil, recordedErr
	}
	if response.StatusCode != http.StatusOK {
		response.Body.Close()
		recordedErr := fmt.Errorf("non-OK HTTP status: %s", response.Status)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return nil, recordedErr
	}

	return response.Body, nil
}

func (f *feed) readLoop(body io.ReadCloser) {
	reader := newSSEReader(body)
	for {
		payload, err := reader.Next()
		if err != nil {
			reader.Close()
			f.handleDisconnect(err)
			return
		}

		event, err := decodeMessage(payload)
		if err != nil {
			log.Println("Warning: dropping malformed feed message:", err)
			continue
		}
		if event == nil {
			continue
		}
		if f.options.EventCallback != nil {
			f.options.EventCallback(event)
		}
	}
}

func (f *feed) handleDisconnect(cause error) {
	f.mu.Lock()
	if f.closed || f.ctx.Err() != nil {
		f.mu.Unlock()
		return
	}

	if f.attempt >= f.options.MaxAttempts {
		f.mu.Unlock()
		if f.options.ErrorCallback != nil {
			f.options.ErrorCallback(fmt.Errorf(
				"session feed lost after %d attempts: %w", f.options.MaxAttempts, ErrRetriesExhausted))
		}
		f.close()
		return
	}

	delay := backoffDelay(f.attempt, f.options.BackoffBase, f.options.BackoffCap)
	f.attempt++
	f.retryTimer = time.AfterFunc(delay, f.reconnect)
	f.mu.Unlock()

	if f.options.ErrorCallback != nil {
		f.options.ErrorCallback(fmt.Errorf("session feed interrupted, reconnecting in %s: %w", delay, cause))
	}
}

func (f *feed) reconnect() {
	f.mu.Lock()
	if f.closed || f.ctx.Err() != nil {
		f.mu.Unlock()
		return
	}
	f.retryTimer = nil
	f.mu.Unlock()

	body, err := f.connect()
	if err != nil {
		f.handleDisconnect(err)
		return
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		body.Close()
		return
	}
	f.body = body
	f.mu.Unlock()

	f.readLoop(body)
}

func (f *feed) close() {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		if f.retryTimer != nil {
			f.retryTimer.Stop()
			f.retryTimer = nil
		}
		body := f.body
		f.body = nil
		f.mu.Unlock()

		f.cancel()
		if body != nil {
			body.Close()
		}

		f.client.clearFeed(f)

		if f.options.CloseCallback != nil {
			f.options.CloseCallback()
		}
	})
}

// backoffDelay returns the reconnect delay for the given zero-based attempt,
// doubling from base and capped at limit.
func backoffDelay(attempt int, base time.Duration, limit time.Duration) time.Duration {
	delay := base << attempt
	if delay <= 0 || delay > limit {
		return limit
	}
	return delay
}
