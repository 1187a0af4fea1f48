package server

import (
	"net/http"

	"github.com/questmap/geoquest/internal/task"
)

func handleUserTasks(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFromRequest(r)
		if username == "" {
			writeError(w, http.StatusUnauthorized, "username required")
			return
		}

		list, err := store.UserTasks(r.Context(), username)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if list == nil {
			list = []task.UserTask{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
