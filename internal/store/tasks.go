package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/successapp/success/pkg/docstore"
)

// TaskStore holds the signal/noise task lists for one user's currently
// selected date. Thread-safe.
type TaskStore struct {
	docs *docstore.Client
	log  *zap.SugaredLogger

	// ctx bounds the store's subscriptions; it lives as long as the session
	ctx    context.Context
	userID string

	mu      sync.Mutex
	date    string
	state   docstore.TaskDocument
	sub     *docstore.TaskSubscription
	changes *broadcaster
	now     func() time.Time
}

// NewTaskStore creates a task store bound to one identity. userID may be
// empty for a signed-out store; mutations then fail with ErrNotSignedIn.
func NewTaskStore(ctx context.Context, docs *docstore.Client, log *zap.SugaredLogger, userID string) *TaskStore {
	return &TaskStore{
		docs:    docs,
		log:     log,
		ctx:     ctx,
		userID:  userID,
		state:   *docstore.EmptyTaskDocument(),
		changes: newBroadcaster(),
		now:     time.Now,
	}
}

// Date returns the currently selected date, or "" before the first SelectDate.
func (s *TaskStore) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// Snapshot returns a copy of the current in-memory task document.
func (s *TaskStore) Snapshot() docstore.TaskDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTaskDocument(&s.state)
}

// Changes registers a render listener woken after every state change.
func (s *TaskStore) Changes() (<-chan struct{}, func()) {
	return s.changes.subscribe()
}

// SelectDate switches the store to a new date: the previous subscription is
// torn down first so its late snapshots cannot overwrite the new date's
// state, in-memory state resets to empty buckets, and a fresh snapshot
// listener is opened. A subscribe failure is logged and the store keeps
// operating on the empty in-memory state.
func (s *TaskStore) SelectDate(date string) error {
	if !docstore.IsValidDate(date) {
		return ErrInvalidDate
	}

	s.mu.Lock()
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
	s.date = date
	s.state = *docstore.EmptyTaskDocument()
	s.mu.Unlock()
	s.changes.notify()

	if s.userID == "" {
		return nil
	}

	sub, err := s.docs.WatchTasks(s.ctx, s.userID, date)
	if err != nil {
		s.log.Warnw("tasks listener unavailable", "date", date, "error", err)
		return nil
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	go s.consume(sub, date)
	return nil
}

// consume applies snapshots from one subscription for as long as it is the
// store's active subscription.
func (s *TaskStore) consume(sub *docstore.TaskSubscription, date string) {
	go func() {
		for err := range sub.Errors() {
			s.log.Warnw("tasks listener error", "date", date, "error", err)
		}
	}()

	for doc := range sub.Events() {
		s.mu.Lock()
		if s.sub != sub {
			// A newer SelectDate replaced us; drop the stale snapshot
			s.mu.Unlock()
			return
		}
		s.state = *doc
		s.mu.Unlock()
		s.changes.notify()
	}
}

// Close tears down the active subscription and clears in-memory state.
// Called before the owning session discards the store.
func (s *TaskStore) Close() {
	s.mu.Lock()
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
	s.state = *docstore.EmptyTaskDocument()
	s.mu.Unlock()
	s.changes.notify()
}

// AddTask appends a new task to the named bucket and persists the full
// document. The in-memory state is updated before the persist call returns;
// a failed persist is logged only and the next snapshot echo corrects it.
func (s *TaskStore) AddTask(ctx context.Context, bucket docstore.Bucket, text string) (docstore.Task, error) {
	if s.userID == "" {
		return docstore.Task{}, ErrNotSignedIn
	}
	if err := bucket.Validate(); err != nil {
		return docstore.Task{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return docstore.Task{}, ErrEmptyText
	}

	task := docstore.Task{
		ID:        uuid.New().String(),
		Text:      text,
		Completed: false,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}

	s.mu.Lock()
	list := s.state.Bucket(bucket)
	*list = append(*list, task)
	doc := copyTaskDocument(&s.state)
	date := s.date
	s.mu.Unlock()
	s.changes.notify()

	s.persist(ctx, date, &doc)
	return task, nil
}

// ToggleTask flips completion on the task with the given id. A missing id is
// a no-op: the task may already be gone in a newer snapshot.
func (s *TaskStore) ToggleTask(ctx context.Context, bucket docstore.Bucket, id string) error {
	if s.userID == "" {
		return ErrNotSignedIn
	}
	if err := bucket.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	list := s.state.Bucket(bucket)
	found := false
	for i := range *list {
		if (*list)[i].ID == id {
			(*list)[i].Completed = !(*list)[i].Completed
			found = true
			break
		}
	}
	doc := copyTaskDocument(&s.state)
	date := s.date
	s.mu.Unlock()

	if !found {
		return nil
	}
	s.changes.notify()

	s.persist(ctx, date, &doc)
	return nil
}

// DeleteTask removes the task with the given id from the named bucket.
func (s *TaskStore) DeleteTask(ctx context.Context, bucket docstore.Bucket, id string) error {
	if s.userID == "" {
		return ErrNotSignedIn
	}
	if err := bucket.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	list := s.state.Bucket(bucket)
	kept := (*list)[:0]
	removed := false
	for _, task := range *list {
		if task.ID == id {
			removed = true
			continue
		}
		kept = append(kept, task)
	}
	*list = kept
	doc := copyTaskDocument(&s.state)
	date := s.date
	s.mu.Unlock()

	if !removed {
		return nil
	}
	s.changes.notify()

	s.persist(ctx, date, &doc)
	return nil
}

func (s *TaskStore) persist(ctx context.Context, date string, doc *docstore.TaskDocument) {
	if date == "" {
		return
	}
	if err := s.docs.PutTasks(ctx, s.userID, date, doc); err != nil {
		s.log.Warnw("failed to save tasks", "date", date, "error", err)
	}
}

func copyTaskDocument(doc *docstore.TaskDocument) docstore.TaskDocument {
	out := docstore.TaskDocument{
		Signal: make([]docstore.Task, len(doc.Signal)),
		Noise:  make([]docstore.Task, len(doc.Noise)),
	}
	copy(out.Signal, doc.Signal)
	copy(out.Noise, doc.Noise)
	return out
}
