package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportLog records the outcome of one spreadsheet import run.
type ImportLog struct {
	ID               uuid.UUID `json:"id"`
	UserID           int64     `json:"user_id"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
	WorkoutsInserted int       `json:"workouts_inserted"`
	SetsInserted     int       `json:"sets_inserted"`
	RowsSkipped      int       `json:"rows_skipped"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// InsertImportLog writes one import-log row, assigning the run id.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (uuid.UUID, error) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO import_logs (id, user_id, source, status, workouts_inserted, sets_inserted, rows_skipped, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.UserID, log.Source, log.Status,
		log.WorkoutsInserted, log.SetsInserted, log.RowsSkipped, log.ErrorMessage)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting import log: %w", err)
	}
	return log.ID, nil
}

// QueryImportLogs returns a user's recent import runs, newest first.
func (db *DB) QueryImportLogs(ctx context.Context, userID int64, limit int) ([]ImportLog, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, source, status, workouts_inserted, sets_inserted, rows_skipped, error_message, created_at
		FROM import_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Source, &l.Status,
			&l.WorkoutsInserted, &l.SetsInserted, &l.RowsSkipped, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
