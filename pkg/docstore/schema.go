package docstore

import "fmt"

// Redis key pattern helpers
//
// All keys and Pub/Sub channels are namespaced by user ID. Point documents are
// stored as hashes; the gratitude collection additionally keeps a per-date ZSET
// index scored by entry timestamp so date queries come back newest-first.
//
// Key pattern: success:user:{user_id}:{collection}:{doc_id}
// Channel pattern: success:user:{user_id}:{collection}:{doc_id}:events

// documentKey builds the common point-document key shared by every collection.
func documentKey(userID string, collection Collection, docID string) string {
	return fmt.Sprintf("success:user:%s:%s:%s", userID, collection, docID)
}

// TasksKey returns the Redis key for a user's task document for one date.
// Pattern: success:user:{user_id}:tasks:{date}
func TasksKey(userID, date string) string {
	return documentKey(userID, CollectionTasks, date)
}

// TimetableKey returns the Redis key for a user's timetable document for one date.
// Pattern: success:user:{user_id}:timetable:{date}
func TimetableKey(userID, date string) string {
	return documentKey(userID, CollectionTimetable, date)
}

// GratitudeEntryKey returns the Redis key for a single gratitude entry.
// Pattern: success:user:{user_id}:gratitude:{entry_id}
func GratitudeEntryKey(userID, entryID string) string {
	return documentKey(userID, CollectionGratitude, entryID)
}

// GratitudeDateIndexKey returns the Redis key for the per-date gratitude ZSET
// index. Members are entry IDs scored by creation timestamp (milliseconds).
// Pattern: success:user:{user_id}:gratitude:by_date:{date}
func GratitudeDateIndexKey(userID, date string) string {
	return fmt.Sprintf("success:user:%s:%s:by_date:%s", userID, CollectionGratitude, date)
}

// TasksEventsChannel returns the Pub/Sub channel for one task document.
// Every full-document write publishes the new snapshot here.
// Pattern: success:user:{user_id}:tasks:{date}:events
func TasksEventsChannel(userID, date string) string {
	return documentKey(userID, CollectionTasks, date) + ":events"
}

// TimetableEventsChannel returns the Pub/Sub channel for one timetable document.
// Pattern: success:user:{user_id}:timetable:{date}:events
func TimetableEventsChannel(userID, date string) string {
	return documentKey(userID, CollectionTimetable, date) + ":events"
}

// GratitudeEventsChannel returns the Pub/Sub channel for a user's gratitude
// collection. Puts and deletes for every date publish here; subscribers filter
// by the event's date field.
// Pattern: success:user:{user_id}:gratitude_events
func GratitudeEventsChannel(userID string) string {
	return fmt.Sprintf("success:user:%s:%s_events", userID, CollectionGratitude)
}
