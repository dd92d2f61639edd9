// Package docstore implements the SuccessApp remote document store on Redis.
//
// # Overview
//
// Every piece of persistent state - daily task lists, the timetable's
// completion state, gratitude journal entries - is a document owned by exactly
// one user. Documents are addressed by (user, collection, document ID) and are
// read and written whole: a save is always a full-document overwrite, and the
// last writer for a given document wins. There is no merging and no conflict
// resolution.
//
// # Collections
//
// Tasks: one TaskDocument per calendar date, holding the signal and noise
// buckets. Document ID is the ISO date.
//
// Timetable: one TimetableState per calendar date, holding the positional done
// array and the compact view flag. Document ID is the ISO date.
//
// Gratitude: one GratitudeEntry per entry, addressed by a generated ID. Each
// entry carries a date field; a per-date ZSET index scored by creation
// timestamp serves the date-filtered, newest-first query.
//
// # Snapshot listeners
//
// Watches are push-based reads: they deliver the current state immediately and
// again on every subsequent change, until closed. Writes publish the new
// snapshot (or, for gratitude, a change event) on a Pub/Sub channel scoped to
// the document, and each watch re-delivers from there. An absent document is
// delivered as an empty document - absence means "nothing saved yet", never an
// error.
//
// Subscriptions must be closed before being replaced and on sign-out. A stale
// subscription left running is a resource leak, and its late snapshots can
// overwrite newer state.
//
// # Usage Example
//
//	client := docstore.NewClient(&redis.Options{Addr: "localhost:6379"})
//	defer client.Close()
//
//	sub, err := client.WatchTasks(ctx, userID, "2025-11-03")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sub.Close()
//
//	for doc := range sub.Events() {
//		render(doc)
//	}
//
// # Redis Schema
//
// Documents: success:user:{user_id}:{collection}:{doc_id} (hash)
// Gratitude date index: success:user:{user_id}:gratitude:by_date:{date} (zset)
// Point channels: success:user:{user_id}:{collection}:{doc_id}:events
// Gratitude channel: success:user:{user_id}:gratitude_events
package docstore
