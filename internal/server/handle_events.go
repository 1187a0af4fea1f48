package server

import (
	"fmt"
	"net/http"
	"time"
)

// handleTrackEvents streams a user's tracking events (arrivals,
// completions) over SSE, for dashboards or a second device observing the
// same user.
func handleTrackEvents(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFromRequest(r)
		if username == "" {
			writeError(w, http.StatusUnauthorized, "username required")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ch := broker.Subscribe(username)
		defer broker.Unsubscribe(username, ch)

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: track\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
