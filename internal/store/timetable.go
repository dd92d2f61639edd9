package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/successapp/success/internal/schedule"
	"github.com/successapp/success/pkg/docstore"
)

// Progress summarises completion of the day's fixed schedule.
type Progress struct {
	Percent   int
	Done      int
	Total     int
	Remaining int
}

// TimetableStore holds the done/compact state for today's fixed schedule.
// The block list itself is embedded content; only the per-day checkmarks and
// the compact-view flag live in the document store. Thread-safe.
type TimetableStore struct {
	docs *docstore.Client
	log  *zap.SugaredLogger

	ctx    context.Context
	userID string

	mu      sync.Mutex
	date    string
	state   docstore.TimetableState
	sub     *docstore.TimetableSubscription
	changes *broadcaster
	now     func() time.Time
}

// NewTimetableStore creates a timetable store bound to one identity. userID
// may be empty: the compact toggle still works locally, everything else
// fails with ErrNotSignedIn.
func NewTimetableStore(ctx context.Context, docs *docstore.Client, log *zap.SugaredLogger, userID string) *TimetableStore {
	return &TimetableStore{
		docs:    docs,
		log:     log,
		ctx:     ctx,
		userID:  userID,
		state:   *docstore.NewTimetableState(len(schedule.Blocks())),
		changes: newBroadcaster(),
		now:     time.Now,
	}
}

// Date returns the currently selected date, or "" before the first select.
func (s *TimetableStore) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// Snapshot returns a copy of the current timetable state, with the done
// slice normalised to the schedule's block count.
func (s *TimetableStore) Snapshot() docstore.TimetableState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTimetableState(&s.state)
}

// Changes registers a render listener woken after every state change.
func (s *TimetableStore) Changes() (<-chan struct{}, func()) {
	return s.changes.subscribe()
}

// SelectToday points the store at the current calendar day. The timetable
// always tracks today; there is no date picker.
func (s *TimetableStore) SelectToday() error {
	return s.selectDate(s.now().Format("2006-01-02"))
}

func (s *TimetableStore) selectDate(date string) error {
	if !docstore.IsValidDate(date) {
		return ErrInvalidDate
	}

	s.mu.Lock()
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
	s.date = date
	s.state = *docstore.NewTimetableState(len(schedule.Blocks()))
	s.mu.Unlock()
	s.changes.notify()

	if s.userID == "" {
		return nil
	}

	sub, err := s.docs.WatchTimetable(s.ctx, s.userID, date)
	if err != nil {
		s.log.Warnw("timetable listener unavailable", "date", date, "error", err)
		return nil
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	go s.consume(sub, date)
	return nil
}

func (s *TimetableStore) consume(sub *docstore.TimetableSubscription, date string) {
	go func() {
		for err := range sub.Errors() {
			s.log.Warnw("timetable listener error", "date", date, "error", err)
		}
	}()

	for state := range sub.Events() {
		s.mu.Lock()
		if s.sub != sub {
			s.mu.Unlock()
			return
		}
		s.state = normalizeTimetableState(state)
		s.mu.Unlock()
		s.changes.notify()
	}
}

// Close tears down the active subscription and resets in-memory state.
func (s *TimetableStore) Close() {
	s.mu.Lock()
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
	s.state = *docstore.NewTimetableState(len(schedule.Blocks()))
	s.mu.Unlock()
	s.changes.notify()
}

// ToggleBlock flips the done flag on one schedule block and persists.
func (s *TimetableStore) ToggleBlock(ctx context.Context, index int) error {
	if s.userID == "" {
		return ErrNotSignedIn
	}
	if index < 0 || index >= len(schedule.Blocks()) {
		return ErrIndexOutOfRange
	}

	s.mu.Lock()
	s.state.Done[index] = !s.state.Done[index]
	state := copyTimetableState(&s.state)
	date := s.date
	s.mu.Unlock()
	s.changes.notify()

	s.persist(ctx, date, &state)
	return nil
}

// MarkAllDone checks every block and persists.
func (s *TimetableStore) MarkAllDone(ctx context.Context) error {
	return s.setAll(ctx, true)
}

// ResetAll clears every checkmark and persists. Callers must confirm with
// the user before invoking; the store itself does not ask.
func (s *TimetableStore) ResetAll(ctx context.Context) error {
	return s.setAll(ctx, false)
}

func (s *TimetableStore) setAll(ctx context.Context, done bool) error {
	if s.userID == "" {
		return ErrNotSignedIn
	}

	s.mu.Lock()
	for i := range s.state.Done {
		s.state.Done[i] = done
	}
	state := copyTimetableState(&s.state)
	date := s.date
	s.mu.Unlock()
	s.changes.notify()

	s.persist(ctx, date, &state)
	return nil
}

// ToggleCompact flips the compact-view flag. The flip always applies
// locally; it is persisted only for a signed-in store, so the preference
// works signed-out but does not survive there.
func (s *TimetableStore) ToggleCompact(ctx context.Context) bool {
	s.mu.Lock()
	s.state.Compact = !s.state.Compact
	compact := s.state.Compact
	state := copyTimetableState(&s.state)
	date := s.date
	s.mu.Unlock()
	s.changes.notify()

	if s.userID != "" {
		s.persist(ctx, date, &state)
	}
	return compact
}

// Progress reports how much of the schedule is checked off.
func (s *TimetableStore) Progress() Progress {
	s.mu.Lock()
	done := make([]bool, len(s.state.Done))
	copy(done, s.state.Done)
	s.mu.Unlock()

	p := Progress{
		Percent:   schedule.Percent(done),
		Total:     len(done),
		Remaining: schedule.Remaining(done),
	}
	p.Done = p.Total - p.Remaining
	return p
}

// CurrentBlock returns the index of the block whose time window contains the
// store's current clock time, or -1 when no window matches.
func (s *TimetableStore) CurrentBlock() int {
	return schedule.CurrentIndex(schedule.MinutesOfDay(s.now()))
}

func (s *TimetableStore) persist(ctx context.Context, date string, state *docstore.TimetableState) {
	if date == "" {
		return
	}
	if err := s.docs.PutTimetable(ctx, s.userID, date, state); err != nil {
		s.log.Warnw("failed to save timetable", "date", date, "error", err)
	}
}

func copyTimetableState(state *docstore.TimetableState) docstore.TimetableState {
	out := docstore.TimetableState{
		Done:    make([]bool, len(state.Done)),
		Compact: state.Compact,
	}
	copy(out.Done, state.Done)
	return out
}

// normalizeTimetableState fits a stored done slice to the current schedule
// length: shorter slices (an older schedule revision, or a fresh document)
// pad with false, longer ones truncate.
func normalizeTimetableState(state *docstore.TimetableState) docstore.TimetableState {
	blocks := len(schedule.Blocks())
	out := docstore.TimetableState{
		Done:    make([]bool, blocks),
		Compact: state.Compact,
	}
	copy(out.Done, state.Done)
	return out
}
