package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/successapp/success/internal/cache"
	"github.com/successapp/success/internal/store"
	"github.com/successapp/success/pkg/docstore"
)

// UserSession bundles the three live feature stores for one user. It exists
// for as long as the user has activity; the stores keep their subscriptions
// and selected dates across requests.
type UserSession struct {
	Identity  Identity
	Tasks     *store.TaskStore
	Timetable *store.TimetableStore
	Gratitude *store.GratitudeStore

	cancel context.CancelFunc
}

// close tears the session down: store subscriptions first, then the context
// that bounds them.
func (u *UserSession) close() {
	u.Tasks.Close()
	u.Timetable.Close()
	u.Gratitude.Close()
	u.cancel()
}

// Registry holds one UserSession per signed-in user, plus a shared guest
// session for unauthenticated requests. Thread-safe.
type Registry struct {
	docs  *docstore.Client
	cache *cache.Store
	log   *zap.SugaredLogger
	ctx   context.Context
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*UserSession
	guest    *UserSession
}

// NewRegistry creates a registry whose sessions are bounded by ctx.
func NewRegistry(ctx context.Context, docs *docstore.Client, local *cache.Store, log *zap.SugaredLogger) *Registry {
	return &Registry{
		docs:     docs,
		cache:    local,
		log:      log,
		ctx:      ctx,
		now:      time.Now,
		sessions: make(map[string]*UserSession),
	}
}

// Resolve returns the live session for an identity, creating it on first
// use. A new session opens on today's date for every store. A signed-out
// identity resolves to the shared guest session.
func (r *Registry) Resolve(id Identity) *UserSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !id.SignedIn() {
		if r.guest == nil {
			r.guest = r.newSession(Identity{})
		}
		return r.guest
	}

	if s, ok := r.sessions[id.ID]; ok {
		return s
	}
	s := r.newSession(id)
	r.sessions[id.ID] = s
	return s
}

// newSession builds and initializes a session. Caller holds r.mu.
func (r *Registry) newSession(id Identity) *UserSession {
	ctx, cancel := context.WithCancel(r.ctx)
	log := r.log.With("user", id.ID)

	s := &UserSession{
		Identity:  id,
		Tasks:     store.NewTaskStore(ctx, r.docs, log, id.ID),
		Timetable: store.NewTimetableStore(ctx, r.docs, log, id.ID),
		Gratitude: store.NewGratitudeStore(ctx, r.docs, r.cache, log, id.ID),
		cancel:    cancel,
	}

	today := r.now().Format("2006-01-02")
	if err := s.Tasks.SelectDate(today); err != nil {
		log.Warnw("failed to open task session", "error", err)
	}
	if err := s.Timetable.SelectToday(); err != nil {
		log.Warnw("failed to open timetable session", "error", err)
	}
	if err := s.Gratitude.SelectDate(today); err != nil {
		log.Warnw("failed to open gratitude session", "error", err)
	}
	return s
}

// Drop closes and forgets the session for one user. Subscriptions are torn
// down before the session disappears so no late snapshot outlives it.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if ok {
		s.close()
	}
}

// Close tears down every session, guest included.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*UserSession, 0, len(r.sessions)+1)
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	if r.guest != nil {
		sessions = append(sessions, r.guest)
		r.guest = nil
	}
	r.sessions = make(map[string]*UserSession)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
