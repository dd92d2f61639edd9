package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Snapshot listeners
//
// A watch delivers the current document state immediately, then one snapshot
// per subsequent change, until the subscription is closed or its context is
// cancelled. Absent documents are delivered as empty documents, never errors.
//
// Each watch subscribes to the document's Pub/Sub channel before taking its
// initial read, so a write that lands between the read and the first message
// is still observed as an update.

// GratitudeEvent describes a change to a user's gratitude collection.
// It is the payload published on the user's gratitude channel.
type GratitudeEvent struct {
	Type    string `json:"type"`
	Date    string `json:"date"`
	EntryID string `json:"entry_id"`
}

const (
	// GratitudeEventPut indicates an entry was created or overwritten.
	GratitudeEventPut = "put"

	// GratitudeEventDelete indicates an entry was removed.
	GratitudeEventDelete = "delete"
)

// TaskSubscription is an active snapshot listener on one task document.
// Caller must call Close() when done to clean up resources.
type TaskSubscription struct {
	events <-chan *TaskDocument
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of task document snapshots. The first value is
// the document's current state. The channel closes when the subscription is
// closed or the context is cancelled.
func (s *TaskSubscription) Events() <-chan *TaskDocument {
	return s.events
}

// Errors returns the channel of subscription errors. Errors are non-fatal;
// the subscription continues and the affected snapshot is skipped.
func (s *TaskSubscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *TaskSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// TimetableSubscription is an active snapshot listener on one timetable document.
type TimetableSubscription struct {
	events <-chan *TimetableState
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of timetable snapshots.
func (s *TimetableSubscription) Events() <-chan *TimetableState {
	return s.events
}

// Errors returns the channel of subscription errors.
func (s *TimetableSubscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
func (s *TimetableSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// GratitudeSubscription is an active snapshot listener on a date-filtered
// gratitude query. Each delivered value is the full entry list for the date,
// newest first.
type GratitudeSubscription struct {
	events <-chan []GratitudeEntry
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of query result snapshots.
func (s *GratitudeSubscription) Events() <-chan []GratitudeEntry {
	return s.events
}

// Errors returns the channel of subscription errors.
func (s *GratitudeSubscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
func (s *GratitudeSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// WatchTasks opens a snapshot listener on the task document for (user, date).
// Caller must call subscription.Close() when done; a forgotten subscription is
// both a resource leak and a correctness hazard, since its late snapshots
// could overwrite newer state.
//
// Snapshots are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once: a too-slow subscriber may miss intermediate snapshots.
func (c *Client) WatchTasks(ctx context.Context, userID, date string) (*TaskSubscription, error) {
	if err := checkAddress(userID, date); err != nil {
		return nil, err
	}

	pubsub := c.rdb.Subscribe(ctx, TasksEventsChannel(userID, date))

	eventsChan := make(chan *TaskDocument, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		// Initial snapshot: absent document means empty buckets
		doc, err := c.GetTasks(subCtx, userID, date)
		if err != nil && !IsNotFound(err) {
			sendErr(subCtx, errorsChan, err)
		} else {
			if doc == nil {
				doc = EmptyTaskDocument()
			}
			if !send(subCtx, eventsChan, doc) {
				return
			}
		}

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var snapshot TaskDocument
				if err := json.Unmarshal([]byte(msg.Payload), &snapshot); err != nil {
					sendErr(subCtx, errorsChan, fmt.Errorf("failed to unmarshal task snapshot: %w", err))
					continue
				}
				if !send(subCtx, eventsChan, &snapshot) {
					return
				}
			}
		}
	}()

	return &TaskSubscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// WatchTimetable opens a snapshot listener on the timetable document for
// (user, date). An absent document is delivered as an empty state; callers
// supply their own defaults.
func (c *Client) WatchTimetable(ctx context.Context, userID, date string) (*TimetableSubscription, error) {
	if err := checkAddress(userID, date); err != nil {
		return nil, err
	}

	pubsub := c.rdb.Subscribe(ctx, TimetableEventsChannel(userID, date))

	eventsChan := make(chan *TimetableState, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		state, err := c.GetTimetable(subCtx, userID, date)
		if err != nil && !IsNotFound(err) {
			sendErr(subCtx, errorsChan, err)
		} else {
			if state == nil {
				state = &TimetableState{Done: []bool{}}
			}
			if !send(subCtx, eventsChan, state) {
				return
			}
		}

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var snapshot TimetableState
				if err := json.Unmarshal([]byte(msg.Payload), &snapshot); err != nil {
					sendErr(subCtx, errorsChan, fmt.Errorf("failed to unmarshal timetable snapshot: %w", err))
					continue
				}
				if !send(subCtx, eventsChan, &snapshot) {
					return
				}
			}
		}
	}()

	return &TimetableSubscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// WatchGratitude opens a snapshot listener on the date-filtered gratitude
// query for (user, date). Every put or delete for that date triggers a re-read
// of the full result list.
func (c *Client) WatchGratitude(ctx context.Context, userID, date string) (*GratitudeSubscription, error) {
	if err := checkAddress(userID, date); err != nil {
		return nil, err
	}

	pubsub := c.rdb.Subscribe(ctx, GratitudeEventsChannel(userID))

	eventsChan := make(chan []GratitudeEntry, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	emitQuery := func() bool {
		entries, err := c.QueryGratitude(subCtx, userID, date)
		if err != nil {
			sendErr(subCtx, errorsChan, err)
			return true
		}
		return send(subCtx, eventsChan, entries)
	}

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		if !emitQuery() {
			return
		}

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var evt GratitudeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					sendErr(subCtx, errorsChan, fmt.Errorf("failed to unmarshal gratitude event: %w", err))
					continue
				}

				// The channel carries every date for this user
				if evt.Date != date {
					continue
				}
				if !emitQuery() {
					return
				}
			}
		}
	}()

	return &GratitudeSubscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

func sendErr(ctx context.Context, ch chan<- error, err error) {
	select {
	case ch <- err:
	case <-ctx.Done():
	}
}
