package task

import (
	"log/slog"
)

// Progress maps canonical quest-chain ids to the user's current step.
// A missing chain means the chain is not started; the resolver treats that
// as step 1.
type Progress map[string]int

// Step returns the user's current step for a chain and whether the chain
// has been started.
func (p Progress) Step(chainID string) (int, bool) {
	step, ok := p[chainID]
	return step, ok
}

// NormalizeProgress builds a Progress from the raw upstream payload. Chain
// ids arrive as heterogeneous types (numeric vs. string) from the store
// layer, and steps arrive as JSON numbers; both are normalized here so a
// chain keyed 7 upstream matches a task carrying chain id "7".
func NormalizeProgress(logger *slog.Logger, raw map[string]any) Progress {
	p := make(Progress, len(raw))
	for key, val := range raw {
		chain, ok := CanonicalID(key)
		if !ok {
			logger.Warn("dropping quest progress entry with unusable chain id", "chain_id", key)
			continue
		}
		step, ok := asStep(val)
		if !ok || step < 1 {
			logger.Warn("dropping quest progress entry with unusable step",
				"chain_id", chain, "step", val)
			continue
		}
		p[chain] = step
	}
	return p
}

func asStep(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// UserTask is one entry of the upstream completed-tasks listing.
type UserTask struct {
	ID     any    `json:"id"`
	Status string `json:"status"`
}

// CompletedSet derives the set of finished task ids from the upstream
// listing: exactly the entries whose status is the upstream done marker.
func CompletedSet(list []UserTask) map[string]struct{} {
	done := make(map[string]struct{}, len(list))
	for _, ut := range list {
		if ut.Status != StatusDone {
			continue
		}
		if id, ok := CanonicalID(ut.ID); ok {
			done[id] = struct{}{}
		}
	}
	return done
}
