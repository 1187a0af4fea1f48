package task

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	tests := map[string]struct {
		rec    Record
		expErr bool
		check  func(t *testing.T, got Task)
	}{
		"Single task parses": {
			rec: Record{ID: "t1", Lat: 25, Lng: 121, RadiusMeters: 50, Category: "single"},
			check: func(t *testing.T, got Task) {
				assert.Equal(t, CategorySingle, got.Category)
				assert.Equal(t, "t1", got.ID)
				assert.Equal(t, 50.0, got.Radius)
			},
		},
		"Numeric id canonicalized": {
			rec: Record{ID: float64(42), Lat: 25, Lng: 121, RadiusMeters: 30, Category: "single"},
			check: func(t *testing.T, got Task) {
				assert.Equal(t, "42", got.ID)
			},
		},
		"Quest task with numeric chain id": {
			rec: Record{ID: "q1", Lat: 25, Lng: 121, RadiusMeters: 40,
				Category: "quest", QuestChainID: float64(7), QuestOrder: 2},
			check: func(t *testing.T, got Task) {
				assert.Equal(t, CategoryQuest, got.Category)
				assert.Equal(t, "7", got.ChainID)
				assert.Equal(t, 2, got.Order)
				assert.False(t, got.FailOpen)
			},
		},
		"Quest task missing chain id is fail-open, not rejected": {
			rec: Record{ID: "q2", Lat: 25, Lng: 121, RadiusMeters: 40,
				Category: "quest", QuestOrder: 1},
			check: func(t *testing.T, got Task) {
				assert.True(t, got.FailOpen)
				assert.Empty(t, got.ChainID)
			},
		},
		"Quest task with zero order rejected": {
			rec: Record{ID: "q3", Lat: 25, Lng: 121, RadiusMeters: 40,
				Category: "quest", QuestChainID: "7"},
			expErr: true,
		},
		"Timed task with window": {
			rec: Record{ID: "e1", Lat: 25, Lng: 121, RadiusMeters: 60, Category: "timed",
				TimeWindowStart: &start, TimeWindowEnd: &end,
				MaxParticipants: 10, CurrentParticipants: 3},
			check: func(t *testing.T, got Task) {
				assert.Equal(t, CategoryTimed, got.Category)
				require.NotNil(t, got.WindowStart)
				assert.Equal(t, start, *got.WindowStart)
				assert.Equal(t, 10, got.MaxParticipants)
			},
		},
		"Timed task with inverted window rejected": {
			rec: Record{ID: "e2", Lat: 25, Lng: 121, RadiusMeters: 60, Category: "timed",
				TimeWindowStart: &end, TimeWindowEnd: &start},
			expErr: true,
		},
		"Unknown category rejected": {
			rec:    Record{ID: "x1", Lat: 25, Lng: 121, RadiusMeters: 50, Category: "bonus"},
			expErr: true,
		},
		"Missing id rejected": {
			rec:    Record{Lat: 25, Lng: 121, RadiusMeters: 50, Category: "single"},
			expErr: true,
		},
		"Out of range coordinates rejected": {
			rec:    Record{ID: "x2", Lat: 95, Lng: 121, RadiusMeters: 50, Category: "single"},
			expErr: true,
		},
		"Category case insensitive": {
			rec: Record{ID: "t2", Lat: 25, Lng: 121, RadiusMeters: 50, Category: "Single"},
			check: func(t *testing.T, got Task) {
				assert.Equal(t, CategorySingle, got.Category)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Parse(test.rec)
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			test.check(t, got)
		})
	}
}

func TestParseCatalogDropsOnlyMalformed(t *testing.T) {
	recs := []Record{
		{ID: "ok1", Lat: 25, Lng: 121, RadiusMeters: 50, Category: "single"},
		{ID: "bad", Lat: 999, Lng: 121, RadiusMeters: 50, Category: "single"},
		{ID: "ok2", Lat: 25, Lng: 121, RadiusMeters: 40, Category: "quest", QuestChainID: "7", QuestOrder: 1},
	}

	tasks := ParseCatalog(slog.New(slog.DiscardHandler), recs)

	require.Len(t, tasks, 2)
	assert.Equal(t, "ok1", tasks[0].ID)
	assert.Equal(t, "ok2", tasks[1].ID)
}

func TestCanonicalID(t *testing.T) {
	tests := map[string]struct {
		in    any
		exp   string
		expOK bool
	}{
		"Plain string":            {"7", "7", true},
		"Float whole number":      {float64(7), "7", true},
		"Float string":            {"7.0", "7", true},
		"Int":                     {7, "7", true},
		"Non-numeric string":      {"chain-a", "chain-a", true},
		"Padded string":           {"  7 ", "7", true},
		"Fractional float":        {7.5, "7.5", true},
		"Nil":                     {nil, "", false},
		"Empty string":            {"", "", false},
		"Unsupported type":        {[]int{1}, "", false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := CanonicalID(test.in)
			assert.Equal(t, test.expOK, ok)
			assert.Equal(t, test.exp, got)
		})
	}
}

// Numeric and string chain ids must resolve to the same progress entry.
func TestNormalizeProgressKeyTypes(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	fromString := NormalizeProgress(logger, map[string]any{"7": float64(2)})
	fromNumericish := NormalizeProgress(logger, map[string]any{"7.0": float64(2)})

	s1, ok1 := fromString.Step("7")
	s2, ok2 := fromNumericish.Step("7")
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, s1, s2)
}

func TestNormalizeProgressDropsGarbage(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	p := NormalizeProgress(logger, map[string]any{
		"7":    float64(2),
		"bad":  "two",
		"zero": float64(0),
	})

	assert.Len(t, p, 1)
	step, ok := p.Step("7")
	assert.True(t, ok)
	assert.Equal(t, 2, step)
}

func TestCompletedSet(t *testing.T) {
	done := CompletedSet([]UserTask{
		{ID: "a", Status: StatusDone},
		{ID: float64(12), Status: StatusDone},
		{ID: "b", Status: "進行中"},
		{ID: nil, Status: StatusDone},
	})

	assert.Len(t, done, 2)
	assert.Contains(t, done, "a")
	assert.Contains(t, done, "12")
	assert.NotContains(t, done, "b")
}
