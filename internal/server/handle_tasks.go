package server

import (
	"log/slog"
	"net/http"

	"github.com/questmap/geoquest/internal/task"
)

// TasksResponse is the catalog envelope. An empty task list is a valid
// catalog, not an error.
type TasksResponse struct {
	Success bool          `json:"success"`
	Tasks   []task.Record `json:"tasks"`
}

func handleTasks(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := store.ListTasks(r.Context())
		if err != nil {
			logger.Error("listing tasks failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if recs == nil {
			recs = []task.Record{}
		}
		writeJSON(w, http.StatusOK, TasksResponse{Success: true, Tasks: recs})
	}
}
