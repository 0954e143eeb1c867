package events

// KindTranscriptEntryAdded identifies interpreted sentences appended to the
// transcript.
const KindTranscriptEntryAdded Kind = "transcript.entry_added"

// TranscriptEntryAdded carries a sentence produced by the interpretation
// pipeline.
type TranscriptEntryAdded struct {
	Base
	ID      string
	Text    string
	Partial bool
}

// NewTranscriptEntryAdded creates a transcript entry event.
func NewTranscriptEntryAdded(id string, text string, partial bool) TranscriptEntryAdded {
	return TranscriptEntryAdded{Base: NewBase(KindTranscriptEntryAdded), ID: id, Text: text, Partial: partial}
}
