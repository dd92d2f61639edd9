package docstore

import (
	"fmt"
	"regexp"
	"time"
)

// Collection identifies one of the three per-user document collections.
type Collection string

const (
	// CollectionTasks holds one TaskDocument per calendar date.
	CollectionTasks Collection = "tasks"

	// CollectionTimetable holds one TimetableState per calendar date.
	CollectionTimetable Collection = "timetable"

	// CollectionGratitude holds one GratitudeEntry per generated entry ID.
	CollectionGratitude Collection = "gratitude"
)

// Validate checks if the Collection is a known value.
func (c Collection) Validate() error {
	switch c {
	case CollectionTasks, CollectionTimetable, CollectionGratitude:
		return nil
	default:
		return fmt.Errorf("unknown collection: %q", c)
	}
}

// Bucket identifies one of the two task lists in a TaskDocument.
type Bucket string

const (
	// BucketSignal holds the important tasks.
	BucketSignal Bucket = "signal"

	// BucketNoise holds the low-value tasks.
	BucketNoise Bucket = "noise"
)

// Validate checks if the Bucket is a known value.
func (b Bucket) Validate() error {
	switch b {
	case BucketSignal, BucketNoise:
		return nil
	default:
		return fmt.Errorf("unknown bucket: %q", b)
	}
}

// Task is a single item in one bucket of one date's TaskDocument.
// A task never moves between buckets or dates.
type Task struct {
	ID        string `json:"id"`        // Unique within its bucket
	Text      string `json:"text"`      // Non-empty at creation
	Completed bool   `json:"completed"` // Flipped by toggle
	CreatedAt string `json:"createdAt"` // RFC3339 creation instant
}

// Validate checks if the Task has valid field values.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if t.Text == "" {
		return fmt.Errorf("task text cannot be empty")
	}
	return nil
}

// TaskDocument is the full task state for one (user, date) pair.
// A missing document means both buckets are empty; that is not an error.
type TaskDocument struct {
	Signal []Task `json:"signal"`
	Noise  []Task `json:"noise"`
}

// EmptyTaskDocument returns a TaskDocument with both buckets present and empty.
func EmptyTaskDocument() *TaskDocument {
	return &TaskDocument{Signal: []Task{}, Noise: []Task{}}
}

// Bucket returns a pointer to the named bucket's slice, or nil if the bucket
// name is unknown.
func (d *TaskDocument) Bucket(b Bucket) *[]Task {
	switch b {
	case BucketSignal:
		return &d.Signal
	case BucketNoise:
		return &d.Noise
	default:
		return nil
	}
}

// Validate checks every task in both buckets.
func (d *TaskDocument) Validate() error {
	for i := range d.Signal {
		if err := d.Signal[i].Validate(); err != nil {
			return fmt.Errorf("invalid signal task at index %d: %w", i, err)
		}
	}
	for i := range d.Noise {
		if err := d.Noise[i].Validate(); err != nil {
			return fmt.Errorf("invalid noise task at index %d: %w", i, err)
		}
	}
	return nil
}

// TimetableState is the completion state for one (user, date) pair.
// Index i of Done corresponds to schedule block i by position.
type TimetableState struct {
	Done    []bool `json:"done"`
	Compact bool   `json:"compact"`
}

// NewTimetableState returns an all-false, non-compact state of the given length.
func NewTimetableState(blocks int) *TimetableState {
	return &TimetableState{Done: make([]bool, blocks)}
}

// GratitudeEntry is a single journal entry. Entries are created and deleted,
// never edited in place.
type GratitudeEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Date      string `json:"date"`      // ISO date the entry belongs to
	Timestamp string `json:"timestamp"` // RFC3339 creation instant
	Prompt    string `json:"prompt"`    // Prompt shown when the entry was written
}

// Validate checks if the GratitudeEntry has valid field values.
func (e *GratitudeEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entry ID cannot be empty")
	}
	if e.Text == "" {
		return fmt.Errorf("entry text cannot be empty")
	}
	if !IsValidDate(e.Date) {
		return fmt.Errorf("invalid entry date: %q", e.Date)
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		return fmt.Errorf("invalid entry timestamp: %w", err)
	}
	return nil
}

// TimestampMillis returns the entry's creation instant as Unix milliseconds.
// Returns 0 if the timestamp does not parse.
func (e *GratitudeEntry) TimestampMillis() int64 {
	t, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValidDate reports whether s is an ISO calendar date (YYYY-MM-DD).
func IsValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
