// Package store implements the three feature stores: tasks, timetable, and
// gratitude. Each store owns the in-memory state for one user's currently
// selected date, keeps it refreshed from a document store snapshot listener,
// and applies user mutations optimistically before persisting the full
// document. Once a snapshot has arrived, in-memory state is always a direct
// projection of the latest received snapshot; a failed write is silently
// corrected by the next snapshot echo.
package store

import "errors"

var (
	// ErrNotSignedIn is returned by mutating operations when the store has no
	// bound identity. The caller surfaces it as a user-facing notice.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrEmptyText is returned when input text trims to nothing. Callers
	// ignore it silently; no state changes.
	ErrEmptyText = errors.New("empty text")

	// ErrInvalidDate is returned when a date is not an ISO calendar date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrIndexOutOfRange is returned by the timetable store for a block index
	// outside the fixed schedule.
	ErrIndexOutOfRange = errors.New("block index out of range")
)
