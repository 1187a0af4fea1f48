package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questmap/geoquest/internal/task"
)

func TestTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("X-Username"); got != "maria" {
			t.Errorf("username header = %q, want maria", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "tasks": [
			{"id": 3, "lat": 25.0, "lng": 121.0, "radiusMeters": 50, "category": "single"},
			{"id": "q1", "lat": 25.1, "lng": 121.1, "radiusMeters": 40, "category": "quest",
			 "questChainId": 7, "questOrder": 2}
		]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "maria")
	require.NoError(t, err)

	recs, err := c.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, float64(3), recs[0].ID)
	assert.Equal(t, float64(7), recs[1].QuestChainID)
}

func TestTasksEmptyCatalogIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "tasks": []}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "maria")
	require.NoError(t, err)

	recs, err := c.Tasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestTasksFailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "maria")
	require.NoError(t, err)

	_, err = c.Tasks(context.Background())
	assert.Error(t, err)
}

func TestTasksServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "maria")
	require.NoError(t, err)

	_, err = c.Tasks(context.Background())
	assert.Error(t, err)
}

func TestQuestProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/quest-progress" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"success": true, "progress": {"7": 2, "12": 1}}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "maria")
	require.NoError(t, err)

	raw, err := c.QuestProgress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(2), raw["7"])
	assert.Equal(t, float64(1), raw["12"])
}

func TestCompletedTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user-tasks/all" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("username"); got != "maria" {
			t.Errorf("username query = %q, want maria", got)
		}
		w.Write([]byte(`[{"id": "t1", "status": "完成"}, {"id": "t2", "status": "進行中"}]`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "maria")
	require.NoError(t, err)

	list, err := c.CompletedTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	done := task.CompletedSet(list)
	assert.Contains(t, done, "t1")
	assert.NotContains(t, done, "t2")
}

func TestNewValidation(t *testing.T) {
	_, err := New("http://localhost:8080", "")
	assert.Error(t, err)
}
