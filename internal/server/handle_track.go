package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"

	"github.com/questmap/geoquest/internal/engine"
	"github.com/questmap/geoquest/internal/geo"
	"github.com/questmap/geoquest/internal/locate"
	"github.com/questmap/geoquest/internal/task"
)

// trackFix is one inbound fix frame from a device.
type trackFix struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
	TsMillis int64   `json:"ts,omitempty"`
}

func (f trackFix) position() geo.Position {
	ts := time.Now()
	if f.TsMillis > 0 {
		ts = time.UnixMilli(f.TsMillis)
	}
	return geo.Position{Lat: f.Lat, Lng: f.Lng, Accuracy: f.Accuracy, Timestamp: ts}
}

// storeCatalog adapts the Store to the engine's Catalog for one user, so
// sessions spawned by the bridge poll the local store the same way a remote
// engine polls the HTTP API.
type storeCatalog struct {
	store    Store
	username string
}

func (c storeCatalog) Tasks(ctx context.Context) ([]task.Record, error) {
	return c.store.ListTasks(ctx)
}

func (c storeCatalog) QuestProgress(ctx context.Context) (map[string]any, error) {
	progress, err := c.store.QuestProgress(ctx, c.username)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]any, len(progress))
	for chain, step := range progress {
		raw[chain] = step
	}
	return raw, nil
}

func (c storeCatalog) CompletedTasks(ctx context.Context) ([]task.UserTask, error) {
	return c.store.UserTasks(ctx, c.username)
}

// handleTrack runs one engine session per connected device: inbound frames
// feed the session's location source, arrival events go back down the wire
// and out through the broker. Closing the connection tears the whole
// session down — nothing survives the request context.
func handleTrack(logger *slog.Logger, store Store, broker *Broker, track TrackConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFromRequest(r)
		if username == "" {
			writeError(w, http.StatusUnauthorized, "username required")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		src := locate.NewChannelSource(16)

		send := func(ev TrackEvent) {
			data, _ := json.Marshal(ev)
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				logger.Debug("tracking write failed", "error", err)
				cancel()
			}
		}

		sess, err := engine.NewSession(engine.SessionConfig{
			Source:  src,
			Catalog: storeCatalog{store: store, username: username},
			OnArrival: func(ev engine.ArrivalEvent) {
				broker.Publish(username, arrivalEvent(ev))
				send(arrivalEvent(ev))
			},
			OnReady: func(pos geo.Position) {
				send(TrackEvent{Type: "ready", Lat: pos.Lat, Lng: pos.Lng})
			},
			Fallback:        track.Fallback,
			PollInterval:    track.PollInterval,
			FirstFixTimeout: track.FirstFixTimeout,
			Logger:          logger.With("username", username),
		})
		if err != nil {
			logger.Error("creating tracking session failed", "error", err)
			return
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return sess.Run(gctx)
		})

		g.Go(func() error {
			defer src.Close()
			for {
				_, data, err := conn.Read(gctx)
				if err != nil {
					logger.Debug("tracking read ended", "error", err)
					return nil
				}
				var fix trackFix
				if err := json.Unmarshal(data, &fix); err != nil {
					logger.Warn("ignoring malformed fix frame", "error", err)
					continue
				}
				if !src.Push(gctx, fix.position()) {
					return nil
				}
			}
		})

		if err := g.Wait(); err != nil && ctx.Err() == nil {
			logger.Debug("tracking session ended", "error", err)
		}
	}
}
