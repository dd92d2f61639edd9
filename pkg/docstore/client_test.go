package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func newTestTask(text string) Task {
	return Task{
		ID:        uuid.New().String(),
		Text:      text,
		Completed: false,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func newTestEntry(date, text string, ts time.Time) *GratitudeEntry {
	return &GratitudeEntry{
		ID:        uuid.New().String(),
		Text:      text,
		Date:      date,
		Timestamp: ts.UTC().Format(time.RFC3339),
		Prompt:    "What made you smile today?",
	}
}

// recvTimeout is how long tests wait for a snapshot before giving up.
const recvTimeout = 2 * time.Second

func recvTasks(t *testing.T, sub *TaskSubscription) *TaskDocument {
	t.Helper()
	select {
	case doc := <-sub.Events():
		return doc
	case err := <-sub.Errors():
		t.Fatalf("unexpected subscription error: %v", err)
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for task snapshot")
	}
	return nil
}

func recvTimetable(t *testing.T, sub *TimetableSubscription) *TimetableState {
	t.Helper()
	select {
	case state := <-sub.Events():
		return state
	case err := <-sub.Errors():
		t.Fatalf("unexpected subscription error: %v", err)
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for timetable snapshot")
	}
	return nil
}

func recvGratitude(t *testing.T, sub *GratitudeSubscription) []GratitudeEntry {
	t.Helper()
	select {
	case entries := <-sub.Events():
		return entries
	case err := <-sub.Errors():
		t.Fatalf("unexpected subscription error: %v", err)
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for gratitude snapshot")
	}
	return nil
}

func TestPing(t *testing.T) {
	client, _ := setupTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestPutGetTasks(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("round-trips a full document", func(t *testing.T) {
		doc := EmptyTaskDocument()
		doc.Signal = append(doc.Signal, newTestTask("prepare interview notes"))
		doc.Noise = append(doc.Noise, newTestTask("scroll feeds"))

		err := client.PutTasks(ctx, "user-1", "2025-11-03", doc)
		require.NoError(t, err)

		got, err := client.GetTasks(ctx, "user-1", "2025-11-03")
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("missing document is not found", func(t *testing.T) {
		_, err := client.GetTasks(ctx, "user-1", "1999-01-01")
		assert.True(t, IsNotFound(err))
	})

	t.Run("rejects invalid document", func(t *testing.T) {
		doc := EmptyTaskDocument()
		doc.Signal = append(doc.Signal, Task{ID: "t1"}) // empty text

		err := client.PutTasks(ctx, "user-1", "2025-11-03", doc)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid task document")
	})

	t.Run("rejects empty addressing", func(t *testing.T) {
		err := client.PutTasks(ctx, "", "2025-11-03", EmptyTaskDocument())
		assert.Error(t, err)

		err = client.PutTasks(ctx, "user-1", "", EmptyTaskDocument())
		assert.Error(t, err)
	})

	t.Run("put is a full overwrite", func(t *testing.T) {
		first := EmptyTaskDocument()
		first.Signal = append(first.Signal, newTestTask("one"), newTestTask("two"))
		require.NoError(t, client.PutTasks(ctx, "user-2", "2025-11-03", first))

		second := EmptyTaskDocument()
		second.Signal = append(second.Signal, newTestTask("only"))
		require.NoError(t, client.PutTasks(ctx, "user-2", "2025-11-03", second))

		got, err := client.GetTasks(ctx, "user-2", "2025-11-03")
		require.NoError(t, err)
		assert.Len(t, got.Signal, 1)
		assert.Equal(t, "only", got.Signal[0].Text)
	})
}

func TestDeleteTasks(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("removes the document", func(t *testing.T) {
		doc := EmptyTaskDocument()
		doc.Signal = append(doc.Signal, newTestTask("draft proposal"))
		require.NoError(t, client.PutTasks(ctx, "user-1", "2025-11-03", doc))

		require.NoError(t, client.DeleteTasks(ctx, "user-1", "2025-11-03"))

		_, err := client.GetTasks(ctx, "user-1", "2025-11-03")
		assert.True(t, IsNotFound(err))
	})

	t.Run("missing document is a no-op", func(t *testing.T) {
		assert.NoError(t, client.DeleteTasks(ctx, "user-1", "1999-01-01"))
	})

	t.Run("rejects empty addressing", func(t *testing.T) {
		assert.Error(t, client.DeleteTasks(ctx, "", "2025-11-03"))
		assert.Error(t, client.DeleteTasks(ctx, "user-1", ""))
	})

	t.Run("publishes an empty snapshot", func(t *testing.T) {
		doc := EmptyTaskDocument()
		doc.Signal = append(doc.Signal, newTestTask("one"))
		require.NoError(t, client.PutTasks(ctx, "user-2", "2025-11-03", doc))

		sub, err := client.WatchTasks(ctx, "user-2", "2025-11-03")
		require.NoError(t, err)
		defer sub.Close()

		got := recvTasks(t, sub) // initial
		require.Len(t, got.Signal, 1)

		require.NoError(t, client.DeleteTasks(ctx, "user-2", "2025-11-03"))

		got = recvTasks(t, sub)
		assert.Empty(t, got.Signal)
		assert.Empty(t, got.Noise)
	})
}

func TestPutGetTimetable(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("round-trips done and compact", func(t *testing.T) {
		state := &TimetableState{Done: []bool{true, false, true}, Compact: true}

		err := client.PutTimetable(ctx, "user-1", "2025-11-03", state)
		require.NoError(t, err)

		got, err := client.GetTimetable(ctx, "user-1", "2025-11-03")
		require.NoError(t, err)
		assert.Equal(t, state, got)
	})

	t.Run("missing document is not found", func(t *testing.T) {
		_, err := client.GetTimetable(ctx, "user-1", "1999-01-01")
		assert.True(t, IsNotFound(err))
	})
}

func TestGratitudeCRUD(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("put then get by ID", func(t *testing.T) {
		entry := newTestEntry("2025-11-03", "grateful for the morning walk", time.Now())
		require.NoError(t, client.PutGratitudeEntry(ctx, "user-1", entry))

		got, err := client.GetGratitudeEntry(ctx, "user-1", entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry, got)
	})

	t.Run("query returns newest first", func(t *testing.T) {
		base := time.Now()
		older := newTestEntry("2025-11-04", "older", base.Add(-time.Hour))
		newer := newTestEntry("2025-11-04", "newer", base)
		require.NoError(t, client.PutGratitudeEntry(ctx, "user-1", older))
		require.NoError(t, client.PutGratitudeEntry(ctx, "user-1", newer))

		entries, err := client.QueryGratitude(ctx, "user-1", "2025-11-04")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "newer", entries[0].Text)
		assert.Equal(t, "older", entries[1].Text)
	})

	t.Run("query filters by date", func(t *testing.T) {
		other := newTestEntry("2025-11-05", "other day", time.Now())
		require.NoError(t, client.PutGratitudeEntry(ctx, "user-1", other))

		entries, err := client.QueryGratitude(ctx, "user-1", "2025-11-04")
		require.NoError(t, err)
		for _, e := range entries {
			assert.Equal(t, "2025-11-04", e.Date)
		}
	})

	t.Run("delete removes entry and index membership", func(t *testing.T) {
		entry := newTestEntry("2025-11-06", "to be deleted", time.Now())
		require.NoError(t, client.PutGratitudeEntry(ctx, "user-1", entry))

		require.NoError(t, client.DeleteGratitudeEntry(ctx, "user-1", entry.ID))

		_, err := client.GetGratitudeEntry(ctx, "user-1", entry.ID)
		assert.True(t, IsNotFound(err))

		entries, err := client.QueryGratitude(ctx, "user-1", "2025-11-06")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("deleting a missing entry is a no-op", func(t *testing.T) {
		assert.NoError(t, client.DeleteGratitudeEntry(ctx, "user-1", uuid.New().String()))
	})

	t.Run("query for an empty date returns empty slice", func(t *testing.T) {
		entries, err := client.QueryGratitude(ctx, "user-1", "1999-01-01")
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})
}

func TestWatchTasks(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("delivers initial snapshot for absent document", func(t *testing.T) {
		sub, err := client.WatchTasks(ctx, "user-1", "2025-11-03")
		require.NoError(t, err)
		defer sub.Close()

		doc := recvTasks(t, sub)
		assert.Empty(t, doc.Signal)
		assert.Empty(t, doc.Noise)
	})

	t.Run("delivers snapshot on every write", func(t *testing.T) {
		sub, err := client.WatchTasks(ctx, "user-2", "2025-11-03")
		require.NoError(t, err)
		defer sub.Close()

		recvTasks(t, sub) // initial

		doc := EmptyTaskDocument()
		doc.Signal = append(doc.Signal, newTestTask("first"))
		require.NoError(t, client.PutTasks(ctx, "user-2", "2025-11-03", doc))

		got := recvTasks(t, sub)
		require.Len(t, got.Signal, 1)
		assert.Equal(t, "first", got.Signal[0].Text)

		doc.Signal[0].Completed = true
		require.NoError(t, client.PutTasks(ctx, "user-2", "2025-11-03", doc))

		got = recvTasks(t, sub)
		assert.True(t, got.Signal[0].Completed)
	})

	t.Run("close stops delivery", func(t *testing.T) {
		sub, err := client.WatchTasks(ctx, "user-3", "2025-11-03")
		require.NoError(t, err)

		recvTasks(t, sub)
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close()) // idempotent

		// The events channel drains and closes
		deadline := time.After(recvTimeout)
		for {
			select {
			case _, ok := <-sub.Events():
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("events channel never closed after Close")
			}
		}
	})

	t.Run("context cancellation stops delivery", func(t *testing.T) {
		watchCtx, cancel := context.WithCancel(ctx)
		sub, err := client.WatchTasks(watchCtx, "user-4", "2025-11-03")
		require.NoError(t, err)
		defer sub.Close()

		recvTasks(t, sub)
		cancel()

		deadline := time.After(recvTimeout)
		for {
			select {
			case _, ok := <-sub.Events():
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("events channel never closed after context cancel")
			}
		}
	})
}

func TestWatchTimetable(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("absent document delivers empty state", func(t *testing.T) {
		sub, err := client.WatchTimetable(ctx, "user-1", "2025-11-03")
		require.NoError(t, err)
		defer sub.Close()

		state := recvTimetable(t, sub)
		assert.Empty(t, state.Done)
		assert.False(t, state.Compact)
	})

	t.Run("persisted state round-trips through the subscription", func(t *testing.T) {
		sub, err := client.WatchTimetable(ctx, "user-2", "2025-11-03")
		require.NoError(t, err)
		defer sub.Close()

		recvTimetable(t, sub) // initial

		state := &TimetableState{Done: []bool{true, false, true, true}, Compact: true}
		require.NoError(t, client.PutTimetable(ctx, "user-2", "2025-11-03", state))

		got := recvTimetable(t, sub)
		assert.Equal(t, state, got)
	})
}

func TestWatchGratitude(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("initial snapshot then updates on put and delete", func(t *testing.T) {
		sub, err := client.WatchGratitude(ctx, "user-1", "2025-11-03")
		require.NoError(t, err)
		defer sub.Close()

		assert.Empty(t, recvGratitude(t, sub))

		entry := newTestEntry("2025-11-03", "watched entry", time.Now())
		require.NoError(t, client.PutGratitudeEntry(ctx, "user-1", entry))

		entries := recvGratitude(t, sub)
		require.Len(t, entries, 1)
		assert.Equal(t, entry.ID, entries[0].ID)

		require.NoError(t, client.DeleteGratitudeEntry(ctx, "user-1", entry.ID))
		assert.Empty(t, recvGratitude(t, sub))
	})

	t.Run("events for other dates are ignored", func(t *testing.T) {
		sub, err := client.WatchGratitude(ctx, "user-2", "2025-11-03")
		require.NoError(t, err)
		defer sub.Close()

		recvGratitude(t, sub) // initial

		other := newTestEntry("2025-12-25", "different date", time.Now())
		require.NoError(t, client.PutGratitudeEntry(ctx, "user-2", other))

		select {
		case entries := <-sub.Events():
			t.Fatalf("unexpected snapshot for unrelated date: %v", entries)
		case <-time.After(200 * time.Millisecond):
		}
	})
}
