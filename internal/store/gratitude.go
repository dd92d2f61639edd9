package store

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/successapp/success/internal/cache"
	"github.com/successapp/success/internal/schedule"
	"github.com/successapp/success/pkg/docstore"
)

// SyncState describes how far a gratitude entry has travelled towards the
// document store.
type SyncState string

const (
	// SyncPending: written locally, remote write not yet attempted or in flight.
	SyncPending SyncState = "pending"
	// SyncSynced: confirmed in the document store, or arrived from a snapshot.
	SyncSynced SyncState = "synced"
	// SyncFailed: the remote write errored; the entry survives in the local cache.
	SyncFailed SyncState = "failed"
)

// GratitudeEntry is a journal entry tagged with its sync state. The tag is a
// local annotation only; it is never written to the document store.
type GratitudeEntry struct {
	docstore.GratitudeEntry
	SyncState SyncState `json:"syncState"`
}

// GratitudeStore holds the journal entries for one user's currently selected
// date. Entries are mirrored to a local cache so the journal reads and
// writes while the document store is unreachable. Thread-safe.
type GratitudeStore struct {
	docs  *docstore.Client
	cache *cache.Store
	log   *zap.SugaredLogger

	ctx    context.Context
	userID string

	mu      sync.Mutex
	date    string
	entries []GratitudeEntry
	prompt  string
	sub     *docstore.GratitudeSubscription
	changes *broadcaster
	now     func() time.Time
	rng     *rand.Rand
}

// NewGratitudeStore creates a gratitude store bound to one identity. userID
// may be empty: the store then reads cached entries and can delete them
// locally, but new entries need a signed-in identity.
func NewGratitudeStore(ctx context.Context, docs *docstore.Client, local *cache.Store, log *zap.SugaredLogger, userID string) *GratitudeStore {
	s := &GratitudeStore{
		docs:    docs,
		cache:   local,
		log:     log,
		ctx:     ctx,
		userID:  userID,
		changes: newBroadcaster(),
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.prompt = s.pickPrompt()
	return s
}

// Date returns the currently selected date, or "" before the first SelectDate.
func (s *GratitudeStore) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// Snapshot returns a copy of the current entry list, newest first.
func (s *GratitudeStore) Snapshot() []GratitudeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GratitudeEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// CurrentPrompt returns the writing prompt shown above the entry box.
func (s *GratitudeStore) CurrentPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// Changes registers a render listener woken after every state change.
func (s *GratitudeStore) Changes() (<-chan struct{}, func()) {
	return s.changes.subscribe()
}

// SelectDate switches the store to a new date. The local cache is read
// synchronously so cached entries render before any remote round trip; the
// snapshot listener then replaces them with the document store's view once
// it answers. Signed out, the cache is the only source.
func (s *GratitudeStore) SelectDate(date string) error {
	if !docstore.IsValidDate(date) {
		return ErrInvalidDate
	}

	cached := s.loadCache(date)

	s.mu.Lock()
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
	s.date = date
	s.entries = cached
	s.mu.Unlock()
	s.changes.notify()

	if s.userID == "" {
		return nil
	}

	sub, err := s.docs.WatchGratitude(s.ctx, s.userID, date)
	if err != nil {
		s.log.Warnw("gratitude listener unavailable", "date", date, "error", err)
		return nil
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	go s.consume(sub, date)
	return nil
}

// consume replaces in-memory entries with each remote snapshot and re-mirrors
// it to the cache. Everything in a snapshot is synced by definition.
func (s *GratitudeStore) consume(sub *docstore.GratitudeSubscription, date string) {
	go func() {
		for err := range sub.Errors() {
			s.log.Warnw("gratitude listener error", "date", date, "error", err)
		}
	}()

	for remote := range sub.Events() {
		entries := make([]GratitudeEntry, len(remote))
		for i, e := range remote {
			entries[i] = GratitudeEntry{GratitudeEntry: e, SyncState: SyncSynced}
		}

		s.mu.Lock()
		if s.sub != sub {
			s.mu.Unlock()
			return
		}
		s.entries = entries
		s.mu.Unlock()
		s.changes.notify()
		s.storeCache(date, entries)
	}
}

// Close tears down the active subscription and clears in-memory state.
func (s *GratitudeStore) Close() {
	s.mu.Lock()
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
	s.entries = nil
	s.mu.Unlock()
	s.changes.notify()
}

// AddEntry creates a journal entry from the given text under the current
// prompt. The entry lands in memory and the local cache first; the remote
// write then upgrades it to synced or tags it failed. A fresh prompt is
// drawn after every add.
func (s *GratitudeStore) AddEntry(ctx context.Context, text string) (GratitudeEntry, error) {
	if s.userID == "" {
		return GratitudeEntry{}, ErrNotSignedIn
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return GratitudeEntry{}, ErrEmptyText
	}

	s.mu.Lock()
	date := s.date
	prompt := s.prompt
	s.mu.Unlock()
	if date == "" {
		return GratitudeEntry{}, ErrInvalidDate
	}

	entry := GratitudeEntry{
		GratitudeEntry: docstore.GratitudeEntry{
			ID:        uuid.New().String(),
			Text:      text,
			Date:      date,
			Timestamp: s.now().UTC().Format(time.RFC3339),
			Prompt:    prompt,
		},
		SyncState: SyncPending,
	}

	s.mu.Lock()
	s.entries = append([]GratitudeEntry{entry}, s.entries...)
	s.prompt = s.pickPrompt()
	snapshot := make([]GratitudeEntry, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()
	s.changes.notify()
	s.storeCache(date, snapshot)

	state := SyncSynced
	if err := s.docs.PutGratitudeEntry(ctx, s.userID, &entry.GratitudeEntry); err != nil {
		s.log.Warnw("failed to save gratitude entry", "date", date, "id", entry.ID, "error", err)
		state = SyncFailed
	}
	s.setSyncState(date, entry.ID, state)
	entry.SyncState = state
	return entry, nil
}

// DeleteEntry removes an entry from memory and the local cache, then from
// the document store when signed in. Local removal happens regardless of
// sign-in so entries that never reached the remote can still be discarded.
func (s *GratitudeStore) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	date := s.date
	kept := s.entries[:0]
	removed := false
	for _, e := range s.entries {
		if e.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	snapshot := make([]GratitudeEntry, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()

	if !removed {
		return nil
	}
	s.changes.notify()
	s.storeCache(date, snapshot)

	if s.userID == "" {
		return nil
	}
	if err := s.docs.DeleteGratitudeEntry(ctx, s.userID, id); err != nil {
		s.log.Warnw("failed to delete gratitude entry", "date", date, "id", id, "error", err)
	}
	return nil
}

func (s *GratitudeStore) setSyncState(date, id string, state SyncState) {
	s.mu.Lock()
	var snapshot []GratitudeEntry
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].SyncState = state
			snapshot = make([]GratitudeEntry, len(s.entries))
			copy(snapshot, s.entries)
			break
		}
	}
	s.mu.Unlock()

	// The entry may already be gone, replaced by a snapshot or deleted.
	if snapshot == nil {
		return
	}
	s.changes.notify()
	s.storeCache(date, snapshot)
}

func (s *GratitudeStore) pickPrompt() string {
	prompts := schedule.Prompts()
	if len(prompts) == 0 {
		return ""
	}
	return prompts[s.rng.Intn(len(prompts))]
}

// loadCache reads the cached entry list for a date, newest first. A missing
// key or an unreadable value both yield an empty list.
func (s *GratitudeStore) loadCache(date string) []GratitudeEntry {
	var entries []GratitudeEntry
	err := s.cache.Get(cache.GratitudeKey(s.userID, date), &entries)
	if err != nil {
		if !errors.Is(err, cache.ErrNoSuchKey) {
			s.log.Warnw("failed to read gratitude cache", "date", date, "error", err)
		}
		return []GratitudeEntry{}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TimestampMillis() > entries[j].TimestampMillis()
	})
	return entries
}

func (s *GratitudeStore) storeCache(date string, entries []GratitudeEntry) {
	if err := s.cache.Put(cache.GratitudeKey(s.userID, date), entries); err != nil {
		s.log.Warnw("failed to write gratitude cache", "date", date, "error", err)
	}
}
