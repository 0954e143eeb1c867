package interpret

import (
	"sync"
	"time"
)

const defaultComposeWindow = 2500 * time.Millisecond

// Composer batches accepted sign labels and, once no new label arrives for
// a quiet window, hands the whole run to the compose callback. Closing the
// composer flushes whatever is still buffered.
type Composer struct {
	mu sync.Mutex

	window time.Duration
	labels []string
	timer  *time.Timer
	gen    int
	closed bool

	compose func(labels []string)
}

type ComposerOption func(*Composer)

// WithComposeWindow overrides how long the composer waits for the next
// label before it closes the run.
func WithComposeWindow(window time.Duration) ComposerOption {
	return func(c *Composer) {
		c.window = window
	}
}

func NewComposer(compose func(labels []string), opts ...ComposerOption) *Composer {
	composer := &Composer{
		window:  defaultComposeWindow,
		compose: compose,
	}

	for _, opt := range opts {
		opt(composer)
	}

	return composer
}

// Push adds one label to the current run and re-arms the quiet window.
func (c *Composer) Push(label string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.labels = append(c.labels, label)

	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	generation := c.gen
	c.timer = time.AfterFunc(c.window, func() {
		c.flush(generation)
	})
	c.mu.Unlock()
}

func (c *Composer) flush(generation int) {
	c.mu.Lock()
	if c.closed || c.gen != generation {
		c.mu.Unlock()
		return
	}

	labels := c.takeLocked()
	c.mu.Unlock()

	if len(labels) > 0 && c.compose != nil {
		c.compose(labels)
	}
}

// Close stops the timer and flushes the remaining run synchronously.
func (c *Composer) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	labels := c.takeLocked()
	c.mu.Unlock()

	if len(labels) > 0 && c.compose != nil {
		c.compose(labels)
	}
}

// takeLocked hands out the current run and resets the composer. It is safe
// to call from a locked context.
func (c *Composer) takeLocked() []string {
	labels := c.labels
	c.labels = nil

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++

	return labels
}
