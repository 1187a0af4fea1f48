package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/questmap/geoquest/internal/task"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) ListTasks(ctx context.Context) ([]task.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, lat, lng, radius_m, category,
		       chain_id, quest_order, window_start, window_end,
		       max_participants, participants
		FROM tasks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var recs []task.Record
	for rows.Next() {
		var (
			rec                    task.Record
			id, name               string
			chainID                sql.NullString
			questOrder             sql.NullInt64
			windowStart, windowEnd sql.NullString
		)
		err := rows.Scan(&id, &name, &rec.Lat, &rec.Lng, &rec.RadiusMeters, &rec.Category,
			&chainID, &questOrder, &windowStart, &windowEnd,
			&rec.MaxParticipants, &rec.CurrentParticipants)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		rec.ID = id
		rec.Name = name
		if chainID.Valid {
			rec.QuestChainID = chainID.String
		}
		if questOrder.Valid {
			rec.QuestOrder = int(questOrder.Int64)
		}
		if rec.TimeWindowStart, err = parseWindow(windowStart); err != nil {
			return nil, fmt.Errorf("task %s: %w", id, err)
		}
		if rec.TimeWindowEnd, err = parseWindow(windowEnd); err != nil {
			return nil, fmt.Errorf("task %s: %w", id, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) QuestProgress(ctx context.Context, username string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chain_id, step FROM quest_progress WHERE username = ?
	`, username)
	if err != nil {
		return nil, fmt.Errorf("listing quest progress: %w", err)
	}
	defer rows.Close()

	progress := make(map[string]int)
	for rows.Next() {
		var chainID string
		var step int
		if err := rows.Scan(&chainID, &step); err != nil {
			return nil, fmt.Errorf("scanning quest progress: %w", err)
		}
		progress[chainID] = step
	}
	return progress, rows.Err()
}

func (s *SQLiteStore) UserTasks(ctx context.Context, username string) ([]task.UserTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, status FROM user_tasks WHERE username = ?
	`, username)
	if err != nil {
		return nil, fmt.Errorf("listing user tasks: %w", err)
	}
	defer rows.Close()

	var list []task.UserTask
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scanning user task: %w", err)
		}
		list = append(list, task.UserTask{ID: id, Status: status})
	}
	return list, rows.Err()
}

// CompleteTask records the server-side effects of finishing a task: the
// user-task status flips to done, quest progress moves past the task's
// order, and timed tasks count the participant.
func (s *SQLiteStore) CompleteTask(ctx context.Context, username, taskID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		category   string
		chainID    sql.NullString
		questOrder sql.NullInt64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT category, chain_id, quest_order FROM tasks WHERE id = ?
	`, taskID).Scan(&category, &chainID, &questOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading task %s: %w", taskID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_tasks (username, task_id, status) VALUES (?, ?, ?)
		ON CONFLICT (username, task_id) DO UPDATE SET status = excluded.status
	`, username, taskID, task.StatusDone)
	if err != nil {
		return fmt.Errorf("marking task done: %w", err)
	}

	if task.Category(category) == task.CategoryQuest && chainID.Valid && questOrder.Valid {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO quest_progress (username, chain_id, step) VALUES (?, ?, ?)
			ON CONFLICT (username, chain_id) DO UPDATE SET
				step = MAX(quest_progress.step, excluded.step)
		`, username, chainID.String, questOrder.Int64+1)
		if err != nil {
			return fmt.Errorf("advancing quest progress: %w", err)
		}
	}

	if task.Category(category) == task.CategoryTimed {
		_, err = tx.ExecContext(ctx, `
			UPDATE tasks SET participants = participants + 1 WHERE id = ?
		`, taskID)
		if err != nil {
			return fmt.Errorf("counting participant: %w", err)
		}
	}

	return tx.Commit()
}

func parseWindow(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, fmt.Errorf("parsing time window %q: %w", v.String, err)
	}
	return &t, nil
}
