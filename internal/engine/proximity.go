package engine

import (
	"log/slog"
	"math"

	"github.com/questmap/geoquest/internal/geo"
)

// ArrivalEvent is raised the first time a user's location falls within a
// task's radius, at most once per task per session.
type ArrivalEvent struct {
	TaskID   string  `json:"taskId"`
	Distance float64 `json:"distance"` // meters from the task at trigger time
}

// Engine tests positions against the active task set and decides which
// tasks count as arrived.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Evaluate checks pos against the session's active tasks and returns the
// arrival events for tasks entered for the first time. Each emitted task is
// added to the triggered set before this function returns, so calling
// Evaluate again with the same position emits nothing.
//
// A task with no radius is skipped (misconfiguration, not a crash), and a
// NaN distance fails the check rather than silently matching, so one
// malformed task never blocks arrival detection for the others.
func (e *Engine) Evaluate(pos geo.Position, st *SessionState) []ArrivalEvent {
	if !pos.Valid() {
		e.logger.Warn("skipping proximity evaluation for invalid position",
			"lat", pos.Lat, "lng", pos.Lng)
		return nil
	}

	var events []ArrivalEvent
	for _, t := range st.ActiveSnapshot() {
		if t.Radius <= 0 {
			continue
		}
		if st.Triggered(t.ID) || st.Completed(t.ID) {
			continue
		}

		d := geo.DistanceMeters(pos.Lat, pos.Lng, t.Lat, t.Lng)
		if math.IsNaN(d) || d > t.Radius {
			continue
		}

		if !st.MarkTriggered(t.ID) {
			continue
		}
		events = append(events, ArrivalEvent{TaskID: t.ID, Distance: d})
	}
	return events
}
