package events

// KindStatusUpdated identifies pipeline stage snapshots.
const KindStatusUpdated Kind = "status.updated"

// StatusUpdated carries the full stage map after any stage changed.
type StatusUpdated struct {
	Base
	Stages map[string]string
}

// NewStatusUpdated creates a status event from a stage snapshot.
func NewStatusUpdated(stages map[string]string) StatusUpdated {
	return StatusUpdated{Base: NewBase(KindStatusUpdated), Stages: stages}
}
