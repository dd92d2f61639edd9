package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestPutGet(t *testing.T) {
	store, _ := openTestStore(t)

	want := testValue{Name: "morning", Count: 3}
	require.NoError(t, store.Put("k1", want))

	var got testValue
	require.NoError(t, store.Get("k1", &got))
	assert.Equal(t, want, got)
}

func TestPutOverwrites(t *testing.T) {
	store, _ := openTestStore(t)

	require.NoError(t, store.Put("k1", testValue{Name: "first"}))
	require.NoError(t, store.Put("k1", testValue{Name: "second"}))

	var got testValue
	require.NoError(t, store.Get("k1", &got))
	assert.Equal(t, "second", got.Name)
}

func TestGetMissingKey(t *testing.T) {
	store, _ := openTestStore(t)

	var got testValue
	err := store.Get("never-written", &got)
	assert.ErrorIs(t, err, ErrNoSuchKey)
}

func TestDelete(t *testing.T) {
	store, _ := openTestStore(t)

	require.NoError(t, store.Put("k1", testValue{Name: "doomed"}))
	require.NoError(t, store.Delete("k1"))

	var got testValue
	assert.ErrorIs(t, store.Get("k1", &got), ErrNoSuchKey)

	// Deleting a missing key is fine
	assert.NoError(t, store.Delete("k1"))
}

func TestRejectsEmptyKey(t *testing.T) {
	store, _ := openTestStore(t)
	assert.Error(t, store.Put("", testValue{}))
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put("k1", testValue{Name: "durable"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	var got testValue
	require.NoError(t, reopened.Get("k1", &got))
	assert.Equal(t, "durable", got.Name)
}

func TestGratitudeKey(t *testing.T) {
	assert.Equal(t, "gratitude_user-1_2025-11-03", GratitudeKey("user-1", "2025-11-03"))
	assert.Equal(t, "gratitude_guest_2025-11-03", GratitudeKey("", "2025-11-03"))
}
