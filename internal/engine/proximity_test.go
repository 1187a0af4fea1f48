package engine

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questmap/geoquest/internal/geo"
	"github.com/questmap/geoquest/internal/task"
)

func testState(catalog []task.Task, progress task.Progress, completed map[string]struct{}) *SessionState {
	st := NewSessionState(testResolver())
	st.RefreshCatalog(catalog, progress, completed, time.Now())
	return st
}

func testEngine() *Engine {
	return NewEngine(slog.New(slog.DiscardHandler))
}

func TestEvaluateArrivalFiresOnce(t *testing.T) {
	catalog := []task.Task{
		{ID: "t1", Lat: 25.0001, Lng: 121.0001, Radius: 50, Category: task.CategorySingle},
	}
	st := testState(catalog, nil, nil)
	e := testEngine()
	pos := geo.Position{Lat: 25.0, Lng: 121.0, Accuracy: 5}

	events := e.Evaluate(pos, st)

	require.Len(t, events, 1)
	assert.Equal(t, "t1", events[0].TaskID)
	assert.InDelta(t, 15.7, events[0].Distance, 0.3)

	// Same position again: already triggered, nothing fires.
	assert.Empty(t, e.Evaluate(pos, st))

	// Moving away and back does not re-trigger either.
	far := geo.Position{Lat: 25.1, Lng: 121.1, Accuracy: 5}
	assert.Empty(t, e.Evaluate(far, st))
	assert.Empty(t, e.Evaluate(pos, st))
}

func TestEvaluateCompletedNeverFires(t *testing.T) {
	catalog := []task.Task{
		{ID: "t1", Lat: 25.0001, Lng: 121.0001, Radius: 50, Category: task.CategorySingle},
	}
	st := testState(catalog, nil, map[string]struct{}{"t1": {}})

	events := testEngine().Evaluate(geo.Position{Lat: 25.0, Lng: 121.0}, st)

	assert.Empty(t, events)
	assert.False(t, st.Triggered("t1"))
}

func TestEvaluateOutsideRadius(t *testing.T) {
	catalog := []task.Task{
		{ID: "t1", Lat: 25.01, Lng: 121.01, Radius: 50, Category: task.CategorySingle},
	}
	st := testState(catalog, nil, nil)

	assert.Empty(t, testEngine().Evaluate(geo.Position{Lat: 25.0, Lng: 121.0}, st))
}

func TestEvaluateZeroRadiusNeverTriggers(t *testing.T) {
	catalog := []task.Task{
		{ID: "broken", Lat: 25.0, Lng: 121.0, Radius: 0, Category: task.CategorySingle},
		{ID: "ok", Lat: 25.0, Lng: 121.0, Radius: 30, Category: task.CategorySingle},
	}
	st := testState(catalog, nil, nil)

	// Standing exactly on both tasks: only the configured one fires.
	events := testEngine().Evaluate(geo.Position{Lat: 25.0, Lng: 121.0}, st)

	require.Len(t, events, 1)
	assert.Equal(t, "ok", events[0].TaskID)
}

func TestEvaluateInvalidPositionFailsCheck(t *testing.T) {
	catalog := []task.Task{
		{ID: "t1", Lat: 25.0, Lng: 121.0, Radius: 50, Category: task.CategorySingle},
	}
	st := testState(catalog, nil, nil)

	events := testEngine().Evaluate(geo.Position{Lat: math.NaN(), Lng: 121.0}, st)

	assert.Empty(t, events)
	assert.False(t, st.Triggered("t1"))
}

func TestEvaluateMultipleArrivalsInOneSample(t *testing.T) {
	catalog := []task.Task{
		{ID: "a", Lat: 25.0, Lng: 121.0, Radius: 100, Category: task.CategorySingle},
		{ID: "b", Lat: 25.0002, Lng: 121.0, Radius: 100, Category: task.CategorySingle},
	}
	st := testState(catalog, nil, nil)

	events := testEngine().Evaluate(geo.Position{Lat: 25.0, Lng: 121.0}, st)

	assert.Len(t, events, 2)
}

func TestTriggeredMonotonicUntilReset(t *testing.T) {
	catalog := []task.Task{
		{ID: "t1", Lat: 25.0, Lng: 121.0, Radius: 50, Category: task.CategorySingle},
		{ID: "t2", Lat: 25.001, Lng: 121.0, Radius: 50, Category: task.CategorySingle},
	}
	st := testState(catalog, nil, nil)
	e := testEngine()

	e.Evaluate(geo.Position{Lat: 25.0, Lng: 121.0}, st)
	assert.Equal(t, 1, st.TriggeredCount())

	e.Evaluate(geo.Position{Lat: 25.001, Lng: 121.0}, st)
	assert.Equal(t, 2, st.TriggeredCount())

	// Refreshing the catalog never shrinks the triggered set.
	st.RefreshCatalog(catalog, nil, nil, time.Now())
	assert.Equal(t, 2, st.TriggeredCount())

	// Reset is the only operation that empties it.
	st.Reset()
	assert.Equal(t, 0, st.TriggeredCount())

	// After reset the same visit fires again.
	events := e.Evaluate(geo.Position{Lat: 25.0, Lng: 121.0}, st)
	require.Len(t, events, 1)
	assert.Equal(t, "t1", events[0].TaskID)
}

func TestMarkTriggeredIdempotent(t *testing.T) {
	st := NewSessionState(testResolver())

	assert.True(t, st.MarkTriggered("x"))
	assert.False(t, st.MarkTriggered("x"))
	assert.Equal(t, 1, st.TriggeredCount())
}

// A snapshot taken before a refresh keeps iterating the old list; the
// refresh replaces the slice rather than mutating it.
func TestRefreshCatalogCopyOnWrite(t *testing.T) {
	first := []task.Task{
		{ID: "t1", Lat: 25, Lng: 121, Radius: 50, Category: task.CategorySingle},
	}
	second := []task.Task{
		{ID: "t2", Lat: 26, Lng: 122, Radius: 50, Category: task.CategorySingle},
	}
	st := testState(first, nil, nil)

	snapshot := st.ActiveSnapshot()
	st.RefreshCatalog(second, nil, nil, time.Now())

	require.Len(t, snapshot, 1)
	assert.Equal(t, "t1", snapshot[0].ID)
	require.Len(t, st.ActiveSnapshot(), 1)
	assert.Equal(t, "t2", st.ActiveSnapshot()[0].ID)
}
