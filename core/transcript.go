package interpretation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// TranscriptEntry is one interpreted sentence in the session transcript.
type TranscriptEntry struct {
	ID      string
	Text    string
	At      time.Time
	Partial bool
}

// TranscriptLog is the append-only ordered transcript of a session. It is
// only cleared by explicit user action or a session stop.
type TranscriptLog struct {
	mu      sync.Mutex
	entries []TranscriptEntry
}

// Append adds a sentence to the transcript and returns the stored entry.
//
// A partial tail entry is provisional: the next append replaces it in place,
// keeping its ID, so an interim caption settles into its final form as a
// single entry instead of stacking revisions.
func (l *TranscriptLog) Append(text string, partial bool) TranscriptEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if n := len(l.entries); n > 0 && l.entries[n-1].Partial {
		l.entries[n-1].Text = text
		l.entries[n-1].At = now
		l.entries[n-1].Partial = partial
		return l.entries[n-1]
	}

	entry := TranscriptEntry{
		ID:      uuid.NewString(),
		Text:    text,
		At:      now,
		Partial: partial,
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Entries returns a copy of the transcript, oldest first.
func (l *TranscriptLog) Entries() []TranscriptEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := []TranscriptEntry{}
	copier.Copy(&entries, l.entries)
	return entries
}

// Clear drops every entry.
func (l *TranscriptLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
}
