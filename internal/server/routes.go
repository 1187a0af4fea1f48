package server

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/questmap/geoquest/internal/geo"
)

// TrackConfig carries the engine settings for sessions spawned by the
// websocket tracking bridge.
type TrackConfig struct {
	PollInterval    time.Duration
	FirstFixTimeout time.Duration
	Fallback        geo.Position
}

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, store Store, track TrackConfig) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("GeoQuest API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	// Catalog surface consumed by the engine.
	r.Get("/api/tasks", handleTasks(logger, store))
	r.Get("/api/user/quest-progress", handleQuestProgress(store))
	r.Get("/api/user-tasks/all", handleUserTasks(store))
	r.Post("/api/tasks/{taskID}/complete", handleComplete(store, broker))

	// Live tracking: devices stream fixes up, arrivals come back.
	r.Get("/ws/track", handleTrack(logger, store, broker, track))
	r.Get("/api/track/events", handleTrackEvents(broker))
}
