package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CompleteResponse acknowledges a task completion.
type CompleteResponse struct {
	Success bool `json:"success"`
}

func handleComplete(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFromRequest(r)
		if username == "" {
			writeError(w, http.StatusUnauthorized, "username required")
			return
		}

		taskID := chi.URLParam(r, "taskID")
		if taskID == "" {
			writeError(w, http.StatusBadRequest, "task id required")
			return
		}

		err := store.CompleteTask(r.Context(), username, taskID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(username, TrackEvent{Type: "completed", TaskID: taskID})
		writeJSON(w, http.StatusOK, CompleteResponse{Success: true})
	}
}
