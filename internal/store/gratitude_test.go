package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/successapp/success/internal/schedule"
)

func TestGratitudeAddSyncsRemote(t *testing.T) {
	docs, local, _ := newTestEnv(t)
	ctx := context.Background()

	s := NewGratitudeStore(ctx, docs, local, testLogger(), "user-1")
	defer s.Close()
	require.NoError(t, s.SelectDate("2026-08-31"))

	entry, err := s.AddEntry(ctx, "  grateful for a quiet morning  ")
	require.NoError(t, err)
	assert.Equal(t, "grateful for a quiet morning", entry.Text)
	assert.Equal(t, SyncSynced, entry.SyncState)
	assert.Contains(t, schedule.Prompts(), entry.Prompt)

	remote, err := docs.QueryGratitude(ctx, "user-1", "2026-08-31")
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Equal(t, entry.ID, remote[0].ID)

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return len(snap) == 1 && snap[0].SyncState == SyncSynced
	}, waitFor, tick)
}

func TestGratitudeNewestFirst(t *testing.T) {
	docs, local, _ := newTestEnv(t)
	ctx := context.Background()

	s := NewGratitudeStore(ctx, docs, local, testLogger(), "user-1")
	defer s.Close()
	require.NoError(t, s.SelectDate("2026-08-31"))

	base := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	first, err := s.AddEntry(ctx, "first")
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(time.Minute) }
	second, err := s.AddEntry(ctx, "second")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return len(snap) == 2 && snap[0].ID == second.ID && snap[1].ID == first.ID
	}, waitFor, tick)
}

func TestGratitudeEmptyTextRejected(t *testing.T) {
	docs, local, _ := newTestEnv(t)
	ctx := context.Background()

	s := NewGratitudeStore(ctx, docs, local, testLogger(), "user-1")
	defer s.Close()
	require.NoError(t, s.SelectDate("2026-08-31"))

	_, err := s.AddEntry(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Empty(t, s.Snapshot())
}

func TestGratitudeSignedOut(t *testing.T) {
	docs, local, mr := newTestEnv(t)
	ctx := context.Background()

	// Adding requires an identity.
	s := NewGratitudeStore(ctx, docs, local, testLogger(), "")
	defer s.Close()
	require.NoError(t, s.SelectDate("2026-08-31"))
	_, err := s.AddEntry(ctx, "another one")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Empty(t, s.Snapshot())

	// Deleting does not: an entry written while the remote was down lives
	// only in the cache, and its owner can remove it offline.
	writer := NewGratitudeStore(ctx, docs, local, testLogger(), "user-1")
	require.NoError(t, writer.SelectDate("2026-08-31"))
	entry, err := writer.AddEntry(ctx, "walked in the rain")
	require.NoError(t, err)
	writer.Close()

	mr.Close()
	w2 := NewGratitudeStore(ctx, docs, local, testLogger(), "user-1")
	defer w2.Close()
	require.NoError(t, w2.SelectDate("2026-08-31"))
	snap := w2.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, entry.ID, snap[0].ID)

	require.NoError(t, w2.DeleteEntry(ctx, entry.ID))
	assert.Empty(t, w2.Snapshot())

	w3 := NewGratitudeStore(ctx, docs, local, testLogger(), "user-1")
	defer w3.Close()
	require.NoError(t, w3.SelectDate("2026-08-31"))
	assert.Empty(t, w3.Snapshot())
}

func TestGratitudeCacheScopedPerUser(t *testing.T) {
	docs, local, mr := newTestEnv(t)
	ctx := context.Background()

	// One user's journal is cached with the remote down, so the entry lives
	// only in the shared cache file.
	mr.Close()
	alice := NewGratitudeStore(ctx, docs, local, testLogger(), "user-alice")
	require.NoError(t, alice.SelectDate("2026-08-31"))
	_, err := alice.AddEntry(ctx, "private: interviewed at acme")
	require.NoError(t, err)
	alice.Close()

	// Another user and the guest session read the same cache file but must
	// never see it.
	bob := NewGratitudeStore(ctx, docs, local, testLogger(), "user-bob")
	defer bob.Close()
	require.NoError(t, bob.SelectDate("2026-08-31"))
	assert.Empty(t, bob.Snapshot())

	guest := NewGratitudeStore(ctx, docs, local, testLogger(), "")
	defer guest.Close()
	require.NoError(t, guest.SelectDate("2026-08-31"))
	assert.Empty(t, guest.Snapshot())

	// The owner still does.
	again := NewGratitudeStore(ctx, docs, local, testLogger(), "user-alice")
	defer again.Close()
	require.NoError(t, again.SelectDate("2026-08-31"))
	snap := again.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "private: interviewed at acme", snap[0].Text)
}

func TestGratitudeRemoteUnavailable(t *testing.T) {
	docs, local, mr := newTestEnv(t)
	ctx := context.Background()

	s := NewGratitudeStore(ctx, docs, local, testLogger(), "user-1")
	defer s.Close()

	// With the document store down, selecting a date and adding an entry
	// still work; the entry is tagged failed and survives in the cache.
	mr.Close()
	require.NoError(t, s.SelectDate("2026-08-31"))

	entry, err := s.AddEntry(ctx, "kept going anyway")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return len(snap) == 1 && snap[0].SyncState == SyncFailed
	}, waitFor, tick)

	s2 := NewGratitudeStore(ctx, docs, local, testLogger(), "user-1")
	defer s2.Close()
	require.NoError(t, s2.SelectDate("2026-08-31"))
	snap := s2.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, entry.ID, snap[0].ID)
	assert.Equal(t, SyncFailed, snap[0].SyncState)
}

func TestGratitudeDeleteSyncsRemote(t *testing.T) {
	docs, local, _ := newTestEnv(t)
	ctx := context.Background()

	s := NewGratitudeStore(ctx, docs, local, testLogger(), "user-1")
	defer s.Close()
	require.NoError(t, s.SelectDate("2026-08-31"))

	entry, err := s.AddEntry(ctx, "short-lived")
	require.NoError(t, err)

	require.NoError(t, s.DeleteEntry(ctx, entry.ID))
	require.Eventually(t, func() bool {
		return len(s.Snapshot()) == 0
	}, waitFor, tick)

	remote, err := docs.QueryGratitude(ctx, "user-1", "2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, remote)

	// Deleting an unknown ID is a no-op.
	assert.NoError(t, s.DeleteEntry(ctx, "no-such-id"))
}

func TestGratitudePromptRotation(t *testing.T) {
	docs, local, _ := newTestEnv(t)
	ctx := context.Background()

	s := NewGratitudeStore(ctx, docs, local, testLogger(), "user-1")
	defer s.Close()
	require.NoError(t, s.SelectDate("2026-08-31"))

	assert.Contains(t, schedule.Prompts(), s.CurrentPrompt())
	_, err := s.AddEntry(ctx, "an entry")
	require.NoError(t, err)
	assert.Contains(t, schedule.Prompts(), s.CurrentPrompt())
}
