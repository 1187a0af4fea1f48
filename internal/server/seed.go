package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// SeedDemo loads a small demo catalog if the tasks table is empty: a plain
// single task, a three-step quest chain, an open and a full timed task, and
// a deliberately misconfigured zero-radius task. Idempotent.
func SeedDemo(ctx context.Context, logger *slog.Logger, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&count); err != nil {
		return fmt.Errorf("counting tasks: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	windowStart := now.Add(-time.Hour).Format(time.RFC3339)
	windowEnd := now.Add(6 * time.Hour).Format(time.RFC3339)

	rows := []struct {
		id, name     string
		lat, lng     float64
		radius       float64
		category     string
		chainID      string
		order        int
		winStart     string
		winEnd       string
		maxP, curP   int
	}{
		{"plaza", "Old Town Plaza", 25.0001, 121.0001, 50, "single", "", 0, "", "", 0, 0},
		{"q7-1", "Temple Gate", 25.0010, 121.0010, 40, "quest", "7", 1, "", "", 0, 0},
		{"q7-2", "Stone Bridge", 25.0020, 121.0020, 40, "quest", "7", 2, "", "", 0, 0},
		{"q7-3", "Bell Tower", 25.0030, 121.0030, 40, "quest", "7", 3, "", "", 0, 0},
		{"night-market", "Night Market Opening", 25.0050, 121.0050, 60, "timed", "", 0, windowStart, windowEnd, 10, 3},
		{"flash-event", "Flash Event (full)", 25.0060, 121.0060, 60, "timed", "", 0, windowStart, windowEnd, 10, 10},
		{"broken-beacon", "Misconfigured Beacon", 25.0070, 121.0070, 0, "single", "", 0, "", "", 0, 0},
	}

	for _, row := range rows {
		_, err := db.ExecContext(ctx, `
			INSERT INTO tasks (id, name, lat, lng, radius_m, category,
			                   chain_id, quest_order, window_start, window_end,
			                   max_participants, participants)
			VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, 0), NULLIF(?, ''), NULLIF(?, ''), ?, ?)
		`, row.id, row.name, row.lat, row.lng, row.radius, row.category,
			row.chainID, row.order, row.winStart, row.winEnd, row.maxP, row.curP)
		if err != nil {
			return fmt.Errorf("seeding task %s: %w", row.id, err)
		}
	}

	logger.Info("demo catalog seeded", "tasks", len(rows))
	return nil
}
