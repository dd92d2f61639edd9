package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client provides user-scoped document operations against Redis.
// All keys and channels are namespaced with the owning user's ID.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new document store client.
func NewClient(redisOpts *redis.Options) *Client {
	return &Client{rdb: redis.NewClient(redisOpts)}
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func checkAddress(userID, docID string) error {
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if docID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	return nil
}

// PutTasks writes the full task document for one (user, date) pair.
// This is always a full-document overwrite; there are no partial patches.
// Publishes the new snapshot to the document's event channel after the write.
func (c *Client) PutTasks(ctx context.Context, userID, date string, doc *TaskDocument) error {
	if err := checkAddress(userID, date); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid task document: %w", err)
	}

	hash, err := TaskDocumentToHash(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize task document: %w", err)
	}

	key := TasksKey(userID, date)
	if err := c.rdb.HSet(ctx, key, hash).Err(); err != nil {
		return fmt.Errorf("failed to write task document to Redis: %w", err)
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal task document for event: %w", err)
	}

	channel := TasksEventsChannel(userID, date)
	if err := c.rdb.Publish(ctx, channel, docJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish task snapshot: %w", err)
	}

	return nil
}

// GetTasks retrieves the task document for one (user, date) pair.
// Returns (nil, redis.Nil) if no document exists for that date.
// Use IsNotFound() to check for not-found errors; absence means empty, not broken.
func (c *Client) GetTasks(ctx context.Context, userID, date string) (*TaskDocument, error) {
	key := TasksKey(userID, date)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read task document from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	doc, err := HashToTaskDocument(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize task document: %w", err)
	}

	return doc, nil
}

// DeleteTasks removes a user's task document for one date.
// Deleting a date that has no document is a no-op, not an error.
// Publishes an empty-document snapshot so subscribers converge on empty.
func (c *Client) DeleteTasks(ctx context.Context, userID, date string) error {
	if err := checkAddress(userID, date); err != nil {
		return err
	}

	key := TasksKey(userID, date)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete task document from Redis: %w", err)
	}

	docJSON, err := json.Marshal(EmptyTaskDocument())
	if err != nil {
		return fmt.Errorf("failed to marshal task document for event: %w", err)
	}

	channel := TasksEventsChannel(userID, date)
	if err := c.rdb.Publish(ctx, channel, docJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish task snapshot: %w", err)
	}

	return nil
}

// PutTimetable writes the full timetable state for one (user, date) pair.
// Full overwrite, same contract as PutTasks.
func (c *Client) PutTimetable(ctx context.Context, userID, date string, state *TimetableState) error {
	if err := checkAddress(userID, date); err != nil {
		return err
	}

	hash, err := TimetableStateToHash(state)
	if err != nil {
		return fmt.Errorf("failed to serialize timetable state: %w", err)
	}

	key := TimetableKey(userID, date)
	if err := c.rdb.HSet(ctx, key, hash).Err(); err != nil {
		return fmt.Errorf("failed to write timetable state to Redis: %w", err)
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal timetable state for event: %w", err)
	}

	channel := TimetableEventsChannel(userID, date)
	if err := c.rdb.Publish(ctx, channel, stateJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish timetable snapshot: %w", err)
	}

	return nil
}

// GetTimetable retrieves the timetable state for one (user, date) pair.
// Returns (nil, redis.Nil) if no document exists for that date.
func (c *Client) GetTimetable(ctx context.Context, userID, date string) (*TimetableState, error) {
	key := TimetableKey(userID, date)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read timetable state from Redis: %w", err)
	}

	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	state, err := HashToTimetableState(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize timetable state: %w", err)
	}

	return state, nil
}

// PutGratitudeEntry writes a gratitude entry addressed by its own ID and adds it
// to the per-date index so date queries can find it. Writing the same entry
// twice is safe. Publishes a put event on the user's gratitude channel.
func (c *Client) PutGratitudeEntry(ctx context.Context, userID string, entry *GratitudeEntry) error {
	if err := checkAddress(userID, entry.ID); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid gratitude entry: %w", err)
	}

	key := GratitudeEntryKey(userID, entry.ID)
	if err := c.rdb.HSet(ctx, key, GratitudeEntryToHash(entry)).Err(); err != nil {
		return fmt.Errorf("failed to write gratitude entry to Redis: %w", err)
	}

	// Index by date, scored by creation timestamp so queries come back newest-first
	indexKey := GratitudeDateIndexKey(userID, entry.Date)
	z := redis.Z{Score: float64(entry.TimestampMillis()), Member: entry.ID}
	if err := c.rdb.ZAdd(ctx, indexKey, z).Err(); err != nil {
		return fmt.Errorf("failed to index gratitude entry: %w", err)
	}

	return c.publishGratitudeEvent(ctx, userID, &GratitudeEvent{
		Type:    GratitudeEventPut,
		Date:    entry.Date,
		EntryID: entry.ID,
	})
}

// GetGratitudeEntry retrieves a single gratitude entry by ID.
// Returns (nil, redis.Nil) if the entry doesn't exist.
func (c *Client) GetGratitudeEntry(ctx context.Context, userID, entryID string) (*GratitudeEntry, error) {
	key := GratitudeEntryKey(userID, entryID)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read gratitude entry from Redis: %w", err)
	}

	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	return HashToGratitudeEntry(hashData), nil
}

// DeleteGratitudeEntry removes a gratitude entry and its index membership.
// Deleting an entry that doesn't exist is a no-op, not an error.
// Publishes a delete event on the user's gratitude channel.
func (c *Client) DeleteGratitudeEntry(ctx context.Context, userID, entryID string) error {
	if err := checkAddress(userID, entryID); err != nil {
		return err
	}

	// Read first: the index key is derived from the entry's date field
	entry, err := c.GetGratitudeEntry(ctx, userID, entryID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}

	key := GratitudeEntryKey(userID, entryID)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete gratitude entry from Redis: %w", err)
	}

	indexKey := GratitudeDateIndexKey(userID, entry.Date)
	if err := c.rdb.ZRem(ctx, indexKey, entryID).Err(); err != nil {
		return fmt.Errorf("failed to unindex gratitude entry: %w", err)
	}

	return c.publishGratitudeEvent(ctx, userID, &GratitudeEvent{
		Type:    GratitudeEventDelete,
		Date:    entry.Date,
		EntryID: entryID,
	})
}

// QueryGratitude returns every gratitude entry for one (user, date) pair,
// ordered by creation timestamp descending. Returns an empty slice when the
// date has no entries (not an error).
func (c *Client) QueryGratitude(ctx context.Context, userID, date string) ([]GratitudeEntry, error) {
	if err := checkAddress(userID, date); err != nil {
		return nil, err
	}

	indexKey := GratitudeDateIndexKey(userID, date)
	ids, err := c.rdb.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read gratitude index from Redis: %w", err)
	}

	entries := make([]GratitudeEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := c.GetGratitudeEntry(ctx, userID, id)
		if err != nil {
			// Skip stale index members whose entry document is gone
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, nil
}

func (c *Client) publishGratitudeEvent(ctx context.Context, userID string, evt *GratitudeEvent) error {
	evtJSON, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal gratitude event: %w", err)
	}

	channel := GratitudeEventsChannel(userID)
	if err := c.rdb.Publish(ctx, channel, evtJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish gratitude event: %w", err)
	}

	return nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
// Use this to check whether a Get returned "no such document".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
