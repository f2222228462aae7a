package models

import "errors"

// Sentinel errors shared across services and mapped to HTTP status
// codes by the handlers.
var (
	// ErrNotFound signals a missing form, user, cycle, or note.
	ErrNotFound = errors.New("not found")

	// ErrValidation signals rejected input: a manual assignment on a
	// default form, an answer outside its question's scale, a cycle
	// whose end does not follow its start, or a leader edge that
	// would close a cycle in the org graph.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signals a duplicate assignment. The engine swallows
	// it internally and reclassifies the user as already assigned;
	// manual assignment surfaces it.
	ErrConflict = errors.New("conflict")

	// ErrReferenced signals an attempt to delete a cycle still
	// referenced by forms, assignments, or notes.
	ErrReferenced = errors.New("still referenced")
)
