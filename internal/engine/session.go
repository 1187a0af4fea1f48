package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/questmap/geoquest/internal/geo"
	"github.com/questmap/geoquest/internal/locate"
	"github.com/questmap/geoquest/internal/task"
)

// Catalog is the upstream the session polls: the task list, the user's
// quest progress, and the user's completed tasks.
type Catalog interface {
	Tasks(ctx context.Context) ([]task.Record, error)
	QuestProgress(ctx context.Context) (map[string]any, error)
	CompletedTasks(ctx context.Context) ([]task.UserTask, error)
}

const (
	defaultPollInterval    = 30 * time.Second
	defaultFirstFixTimeout = 10 * time.Second
)

// SessionConfig wires a session together. Source, Catalog and OnArrival are
// required; the rest default sensibly.
type SessionConfig struct {
	Source  locate.Source
	Catalog Catalog

	// OnArrival receives each arrival event. It is the session's only
	// outward effect; it must not block for long since it runs on the
	// evaluation path.
	OnArrival func(ArrivalEvent)

	// OnRedraw, if set, is invoked for samples that passed the movement
	// gate and should move the rendered marker.
	OnRedraw func(geo.Position)

	// OnReady, if set, is invoked exactly once with the initial position —
	// the first fix, or the fallback if acquisition timed out or
	// permission was denied.
	OnReady func(geo.Position)

	// Fallback is the default location used when no fix can be acquired.
	Fallback geo.Position

	PollInterval    time.Duration
	FirstFixTimeout time.Duration

	Logger *slog.Logger
}

// Session drives one open map view: it subscribes to the location source,
// filters and evaluates every raw sample, polls the catalog, and surfaces
// each arrival exactly once until Reset. Discard the session when the view
// unmounts; cancelling Run's context releases the watch and any in-flight
// fetch.
type Session struct {
	id       string
	cfg      SessionConfig
	logger   *slog.Logger
	state    *SessionState
	engine   *Engine
	ready    bool
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Source == nil {
		return nil, errors.New("session: location source is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("session: catalog is required")
	}
	if cfg.OnArrival == nil {
		return nil, errors.New("session: arrival sink is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.FirstFixTimeout <= 0 {
		cfg.FirstFixTimeout = defaultFirstFixTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	id := uuid.NewString()
	logger = logger.With("session_id", id)

	resolver := NewResolver(logger)
	return &Session{
		id:     id,
		cfg:    cfg,
		logger: logger,
		state:  NewSessionState(resolver),
		engine: NewEngine(logger),
	}, nil
}

func (s *Session) ID() string { return s.id }

// State exposes the session state for inspection and tests.
func (s *Session) State() *SessionState { return s.state }

// Reset clears the triggered set so tasks may fire again, used when the
// user explicitly retries within the same view.
func (s *Session) Reset() {
	s.state.Reset()
	s.logger.Info("session reset, triggered set cleared")
}

// Run blocks until ctx is cancelled, the location stream ends, or location
// permission is denied. The catalog is fetched once up front and then on
// every poll tick; a failed refresh keeps the last good catalog.
func (s *Session) Run(ctx context.Context) error {
	s.refresh(ctx)

	fixes, err := s.acquire(ctx)
	if err != nil {
		if errors.Is(err, locate.ErrPermissionDenied) {
			// Fatal to live tracking: settle on the fallback location and
			// stop. The caller decides when the user re-grants access.
			s.logger.Warn("location permission denied, proximity detection disabled")
			s.state.UpdatePosition(s.cfg.Fallback)
			s.fireReady(s.cfg.Fallback)
			return fmt.Errorf("acquiring location: %w", err)
		}
		return fmt.Errorf("acquiring location: %w", err)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fix, ok := <-fixes:
			if !ok {
				// The watch also closes its channel on cancellation;
				// report that as cancellation, not a clean stream end.
				if err := ctx.Err(); err != nil {
					return err
				}
				s.logger.Info("location stream ended")
				return nil
			}
			s.handleFix(fix)
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// acquire obtains the fix channel, applying the first-fix policy: a bounded
// wait on a high-accuracy watch, one retry at lower accuracy, then the
// fallback location. Whatever happens, OnReady fires exactly once and a
// usable position exists afterwards.
func (s *Session) acquire(ctx context.Context) (<-chan geo.Position, error) {
	highCtx, cancelHigh := context.WithCancel(ctx)
	fixes, err := s.cfg.Source.Watch(highCtx, locate.Options{HighAccuracy: true})
	if err != nil {
		cancelHigh()
		return nil, err
	}

	select {
	case <-ctx.Done():
		cancelHigh()
		return nil, ctx.Err()
	case fix, ok := <-fixes:
		if ok {
			s.fireReady(fix)
			s.handleFix(fix)
			// The watch stays live past this return; highCtx is cancelled
			// via ctx, so cancelHigh is intentionally not called here.
			_ = cancelHigh
			return fixes, nil
		}
		cancelHigh()
		return nil, errors.New("location stream ended before first fix")
	case <-time.After(s.cfg.FirstFixTimeout):
		cancelHigh()
		s.logger.Warn("first fix timed out, retrying at lower accuracy")
	}

	fixes, err = s.cfg.Source.Watch(ctx, locate.Options{HighAccuracy: false})
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case fix, ok := <-fixes:
		if ok {
			s.fireReady(fix)
			s.handleFix(fix)
			return fixes, nil
		}
		return nil, errors.New("location stream ended before first fix")
	case <-time.After(s.cfg.FirstFixTimeout):
		s.logger.Warn("low-accuracy retry timed out, using fallback location",
			"lat", s.cfg.Fallback.Lat, "lng", s.cfg.Fallback.Lng)
		s.state.UpdatePosition(s.cfg.Fallback)
		s.fireReady(s.cfg.Fallback)
		// Keep listening: a late fix still resumes live tracking.
		return fixes, nil
	}
}

// handleFix runs the full per-sample pipeline: filter, position update,
// proximity evaluation, arrival delivery. Evaluation runs on every raw
// sample regardless of the filter verdict, so a brief accurate pass through
// a small radius is never missed.
func (s *Session) handleFix(fix geo.Position) {
	if !fix.Valid() {
		s.logger.Warn("ignoring malformed fix", "lat", fix.Lat, "lng", fix.Lng)
		return
	}

	verdict := FilterSample(s.state.LastPosition(), fix)
	if verdict.UpdatePosition {
		s.state.UpdatePosition(fix)
	}
	if verdict.Redraw && s.cfg.OnRedraw != nil {
		s.cfg.OnRedraw(fix)
	}

	for _, ev := range s.engine.Evaluate(fix, s.state) {
		s.logger.Info("arrival detected", "task_id", ev.TaskID, "distance_m", ev.Distance)
		s.cfg.OnArrival(ev)
	}
}

// refresh fetches catalog, progress, and completed tasks, and swaps in the
// recomputed active set. Any fetch error keeps the last good data.
func (s *Session) refresh(ctx context.Context) {
	recs, err := s.cfg.Catalog.Tasks(ctx)
	if err != nil {
		s.logger.Warn("task catalog fetch failed, keeping previous catalog", "error", err)
		return
	}
	rawProgress, err := s.cfg.Catalog.QuestProgress(ctx)
	if err != nil {
		s.logger.Warn("quest progress fetch failed, keeping previous catalog", "error", err)
		return
	}
	userTasks, err := s.cfg.Catalog.CompletedTasks(ctx)
	if err != nil {
		s.logger.Warn("completed tasks fetch failed, keeping previous catalog", "error", err)
		return
	}

	catalog := task.ParseCatalog(s.logger, recs)
	progress := task.NormalizeProgress(s.logger, rawProgress)
	completed := task.CompletedSet(userTasks)

	s.state.RefreshCatalog(catalog, progress, completed, time.Now())
	s.logger.Debug("catalog refreshed",
		"catalog_size", len(catalog),
		"active", len(s.state.ActiveSnapshot()),
		"completed", len(completed))
}

func (s *Session) fireReady(pos geo.Position) {
	if s.ready {
		return
	}
	s.ready = true
	if s.cfg.OnReady != nil {
		s.cfg.OnReady(pos)
	}
}
