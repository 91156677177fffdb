package domain

import "github.com/google/uuid"

// Note marks a successful operation that changed nothing for an expected,
// harmless reason.
type Note string

const (
	NoteNone             Note = ""
	NoteAlreadyAssigned  Note = "already_assigned"
	NoteAtBoundary       Note = "at_boundary"
	NoteAlreadyCompleted Note = "already_completed"
	NoteUnchanged        Note = "unchanged"
)

// Result describes the outcome of a sequencing mutation.
type Result struct {
	GroupID  uuid.UUID
	Note     Note
	Inserted int
	Moved    int
	Skipped  int
	// Stops is the group's sequence after the operation, in delivery order.
	Stops []Assignment
}

// Changed reports whether the operation altered stored state.
func (r *Result) Changed() bool {
	return r.Note == NoteNone
}
