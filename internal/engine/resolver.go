package engine

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/questmap/geoquest/internal/task"
)

// Resolver computes the active task subset: the tasks eligible for display
// and proximity evaluation given the catalog and the user's quest progress.
// It holds no state beyond a logger; recomputation is deterministic and safe
// on every poll.
type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// ActiveTasks filters the catalog down to the proximity-eligible subset:
//   - single tasks are always active;
//   - timed tasks are active inside their window (inclusive edges) while
//     under capacity; an absent window edge or zero cap is unconstrained;
//   - quest tasks are active iff their order matches the user's current
//     step for the chain, where an unstarted chain means step 1.
//
// The returned slice is always freshly allocated so callers can swap it in
// atomically while older snapshots keep iterating.
func (r *Resolver) ActiveTasks(catalog []task.Task, progress task.Progress, now time.Time) []task.Task {
	active := make([]task.Task, 0, len(catalog))

	seenOrders := make(map[[2]string]string) // (chain, order-as-key) -> first task id

	for _, t := range catalog {
		switch t.Category {
		case task.CategorySingle:
			active = append(active, t)

		case task.CategoryTimed:
			if !r.timedActive(t, now) {
				continue
			}
			active = append(active, t)

		case task.CategoryQuest:
			if t.FailOpen {
				// Missing chain id: always shown rather than silently
				// dropped. Ingestion already warned about the record.
				active = append(active, t)
				continue
			}
			if !questActive(t, progress) {
				continue
			}
			key := [2]string{t.ChainID, strconv.Itoa(t.Order)}
			if first, dup := seenOrders[key]; dup {
				// Two tasks sharing an order in one chain is a data
				// anomaly; keep both instead of arbitrarily dropping one.
				r.logger.Warn("duplicate quest order in chain, keeping both tasks",
					"chain_id", t.ChainID, "quest_order", t.Order,
					"task_id", t.ID, "first_task_id", first)
			} else {
				seenOrders[key] = t.ID
			}
			active = append(active, t)
		}
	}

	for _, t := range active {
		if t.Radius <= 0 {
			r.logger.Warn("active task has no trigger radius and will never fire",
				"task_id", t.ID, "radius_m", t.Radius)
		}
	}

	return active
}

func (r *Resolver) timedActive(t task.Task, now time.Time) bool {
	if t.WindowStart != nil && now.Before(*t.WindowStart) {
		return false
	}
	if t.WindowEnd != nil && now.After(*t.WindowEnd) {
		return false
	}
	if t.MaxParticipants > 0 && t.Participants >= t.MaxParticipants {
		return false
	}
	return true
}

func questActive(t task.Task, progress task.Progress) bool {
	step, started := progress.Step(t.ChainID)
	if !started {
		return t.Order == 1
	}
	return t.Order == step
}

