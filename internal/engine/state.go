package engine

import (
	"sync"
	"time"

	"github.com/questmap/geoquest/internal/geo"
	"github.com/questmap/geoquest/internal/task"
)

// SessionState is the single mutable aggregate the engine components read
// and write. It lives for the duration of one open map view and is never
// shared across views.
//
// The triggered and completed sets are monotonic: triggered only shrinks on
// an explicit Reset, completed is replaced wholesale on catalog refresh. The
// active list is copy-on-write — RefreshCatalog installs a freshly built
// slice with a single assignment, so a snapshot taken by an in-flight
// evaluation is never half-updated.
type SessionState struct {
	resolver *Resolver

	mu           sync.Mutex
	lastPosition *geo.Position
	triggered    map[string]struct{}
	completed    map[string]struct{}
	active       []task.Task
}

func NewSessionState(resolver *Resolver) *SessionState {
	return &SessionState{
		resolver:  resolver,
		triggered: make(map[string]struct{}),
		completed: make(map[string]struct{}),
	}
}

// UpdatePosition stores the latest accepted fix.
func (s *SessionState) UpdatePosition(pos geo.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPosition = &pos
}

// LastPosition returns the last accepted fix, or nil before the first one.
func (s *SessionState) LastPosition() *geo.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastPosition == nil {
		return nil
	}
	p := *s.lastPosition
	return &p
}

// MarkTriggered records that an arrival event has been raised for the task.
// It reports whether the task was newly inserted, so a task already in the
// set never fires twice in one session.
func (s *SessionState) MarkTriggered(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.triggered[taskID]; ok {
		return false
	}
	s.triggered[taskID] = struct{}{}
	return true
}

// Triggered reports whether an arrival has already been raised for the task.
func (s *SessionState) Triggered(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.triggered[taskID]
	return ok
}

// TriggeredCount returns the size of the triggered set.
func (s *SessionState) TriggeredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggered)
}

// Completed reports whether the server listed the task as finished.
func (s *SessionState) Completed(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.completed[taskID]
	return ok
}

// RefreshCatalog recomputes the active task list through the resolver and
// atomically replaces it together with the completed set. The previous
// active slice is left untouched for any iteration still holding it.
func (s *SessionState) RefreshCatalog(catalog []task.Task, progress task.Progress, completed map[string]struct{}, now time.Time) {
	active := s.resolver.ActiveTasks(catalog, progress, now)
	if completed == nil {
		completed = make(map[string]struct{})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
	s.completed = completed
}

// ActiveSnapshot returns the current active task list. The slice is never
// mutated in place, so callers may iterate it without holding any lock.
func (s *SessionState) ActiveSnapshot() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Reset clears the triggered set. It is the only operation that shrinks it,
// used on session boundaries (leaving and re-entering the map view).
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggered = make(map[string]struct{})
}
