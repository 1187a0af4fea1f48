package server

import (
	"net/http"
)

const usernameHeader = "X-Username"

// ProgressResponse is the quest-progress envelope: chain id → current step.
type ProgressResponse struct {
	Success  bool           `json:"success"`
	Progress map[string]int `json:"progress"`
}

// usernameFromRequest resolves the requesting user from the per-request
// header, falling back to the query parameter the older endpoints use.
func usernameFromRequest(r *http.Request) string {
	if u := r.Header.Get(usernameHeader); u != "" {
		return u
	}
	return r.URL.Query().Get("username")
}

func handleQuestProgress(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFromRequest(r)
		if username == "" {
			writeError(w, http.StatusUnauthorized, "username header required")
			return
		}

		progress, err := store.QuestProgress(r.Context(), username)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ProgressResponse{Success: true, Progress: progress})
	}
}
