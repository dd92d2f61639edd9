package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/successapp/success/internal/cache"
	"github.com/successapp/success/pkg/docstore"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	docs := docstore.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { docs.Close() })

	local, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	r := NewRegistry(context.Background(), docs, local, zap.NewNop().Sugar())
	t.Cleanup(r.Close)
	return r
}

func TestRegistryResolveReusesSession(t *testing.T) {
	r := newTestRegistry(t)
	id := Identity{ID: "user-1", DisplayName: "Dana"}

	a := r.Resolve(id)
	b := r.Resolve(id)
	assert.Same(t, a, b)
	assert.Equal(t, id, a.Identity)

	// A fresh session opens every store on today's date.
	assert.Equal(t, r.now().Format("2006-01-02"), a.Tasks.Date())
	assert.Equal(t, a.Tasks.Date(), a.Timetable.Date())
	assert.Equal(t, a.Tasks.Date(), a.Gratitude.Date())
}

func TestRegistrySessionSurvivesAcrossRequests(t *testing.T) {
	r := newTestRegistry(t)
	id := Identity{ID: "user-1"}

	a := r.Resolve(id)
	require.NoError(t, a.Tasks.SelectDate("2026-08-01"))

	// Re-resolving keeps the store's selected date.
	b := r.Resolve(id)
	assert.Equal(t, "2026-08-01", b.Tasks.Date())
}

func TestRegistryGuestIsShared(t *testing.T) {
	r := newTestRegistry(t)

	a := r.Resolve(Identity{})
	b := r.Resolve(Identity{})
	assert.Same(t, a, b)
	assert.False(t, a.Identity.SignedIn())
}

func TestRegistryDrop(t *testing.T) {
	r := newTestRegistry(t)
	id := Identity{ID: "user-1"}

	a := r.Resolve(id)
	r.Drop("user-1")

	b := r.Resolve(id)
	assert.NotSame(t, a, b)

	// Dropping an unknown user is a no-op.
	r.Drop("never-seen")
}
