// Package task defines the catalog model consumed by the engine: the task
// records fetched from the upstream API, per-category validation, and the
// quest-progress and completed-task inputs that gate visibility.
package task

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// Category discriminates the three task kinds. Every category has its own
// required fields, enforced at ingestion rather than deep in the matching
// logic.
type Category string

const (
	CategorySingle Category = "single"
	CategoryTimed  Category = "timed"
	CategoryQuest  Category = "quest"
)

// StatusDone is the upstream completion marker for a user task.
const StatusDone = "完成"

// Task is an immutable catalog entry. The upstream API owns it; the engine
// treats it as read-only input refreshed on each catalog poll.
type Task struct {
	ID       string
	Name     string
	Lat      float64
	Lng      float64
	Radius   float64 // trigger radius, meters; <=0 means the task can never trigger
	Category Category

	// Quest fields.
	ChainID string // empty on a quest task means the record is malformed (fail-open)
	Order   int

	// Timed fields. Nil window edge or zero cap means unconstrained.
	WindowStart     *time.Time
	WindowEnd       *time.Time
	MaxParticipants int
	Participants    int

	// FailOpen marks a quest task that is missing its chain id. Such a task
	// is always treated as active so a data error never hides a task a user
	// might need.
	FailOpen bool
}

// Record is the wire shape of a catalog entry. Identifier fields are typed
// loosely because the upstream store emits them as either numbers or
// strings.
type Record struct {
	ID                  any        `json:"id"`
	Name                string     `json:"name,omitempty"`
	Lat                 float64    `json:"lat"`
	Lng                 float64    `json:"lng"`
	RadiusMeters        float64    `json:"radiusMeters"`
	Category            string     `json:"category"`
	QuestChainID        any        `json:"questChainId,omitempty"`
	QuestOrder          int        `json:"questOrder,omitempty"`
	TimeWindowStart     *time.Time `json:"timeWindowStart,omitempty"`
	TimeWindowEnd       *time.Time `json:"timeWindowEnd,omitempty"`
	MaxParticipants     int        `json:"maxParticipants,omitempty"`
	CurrentParticipants int        `json:"currentParticipants,omitempty"`
}

// Parse validates a wire record and converts it into a Task. A quest record
// without a chain id is NOT an error: it parses with FailOpen set, per the
// documented fail-open default.
func Parse(rec Record) (Task, error) {
	id, ok := CanonicalID(rec.ID)
	if !ok {
		return Task{}, fmt.Errorf("task record has no usable id (%v)", rec.ID)
	}

	if math.IsNaN(rec.Lat) || math.IsNaN(rec.Lng) ||
		rec.Lat < -90 || rec.Lat > 90 || rec.Lng < -180 || rec.Lng > 180 {
		return Task{}, fmt.Errorf("task %s has invalid coordinates (%v, %v)", id, rec.Lat, rec.Lng)
	}

	t := Task{
		ID:              id,
		Name:            rec.Name,
		Lat:             rec.Lat,
		Lng:             rec.Lng,
		Radius:          rec.RadiusMeters,
		WindowStart:     rec.TimeWindowStart,
		WindowEnd:       rec.TimeWindowEnd,
		MaxParticipants: rec.MaxParticipants,
		Participants:    rec.CurrentParticipants,
	}

	switch Category(strings.ToLower(strings.TrimSpace(rec.Category))) {
	case CategorySingle:
		t.Category = CategorySingle

	case CategoryTimed:
		t.Category = CategoryTimed
		if t.WindowStart != nil && t.WindowEnd != nil && t.WindowEnd.Before(*t.WindowStart) {
			return Task{}, fmt.Errorf("timed task %s has window end before start", id)
		}

	case CategoryQuest:
		t.Category = CategoryQuest
		if rec.QuestOrder < 1 {
			return Task{}, fmt.Errorf("quest task %s has order %d, want >= 1", id, rec.QuestOrder)
		}
		t.Order = rec.QuestOrder
		chain, ok := CanonicalID(rec.QuestChainID)
		if !ok {
			t.FailOpen = true
		} else {
			t.ChainID = chain
		}

	default:
		return Task{}, fmt.Errorf("task %s has unknown category %q", id, rec.Category)
	}

	return t, nil
}

// ParseCatalog converts a fetched record list into tasks, dropping malformed
// records with a warning. One bad record never blocks the rest of the
// catalog.
func ParseCatalog(logger *slog.Logger, recs []Record) []Task {
	tasks := make([]Task, 0, len(recs))
	for _, rec := range recs {
		t, err := Parse(rec)
		if err != nil {
			logger.Warn("rejecting malformed task record", "error", err)
			continue
		}
		if t.FailOpen {
			logger.Warn("quest task missing chain id, treating as always active",
				"task_id", t.ID, "quest_order", t.Order)
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// CanonicalID folds the heterogeneous identifier encodings the upstream
// store produces (7, "7", 7.0, json.Number) into one canonical string key.
// The second return is false when no usable identifier is present.
func CanonicalID(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(id)
		if s == "" {
			return "", false
		}
		// "7.0" and "7" must collide.
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return strconv.FormatInt(int64(f), 10), true
		}
		return s, true
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) {
			return "", false
		}
		if id == math.Trunc(id) {
			return strconv.FormatInt(int64(id), 10), true
		}
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case fmt.Stringer:
		return CanonicalID(id.String())
	default:
		return "", false
	}
}
