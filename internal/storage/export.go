package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/liftbot/internal/timeutil"
)

// TrainingRow is one set of the user's flat training log, the shape the
// spreadsheet export writes out.
type TrainingRow struct {
	Date     time.Time
	Workout  string
	Exercise string
	SetIndex int
	Reps     int
	Weight   float64
	RIR      *float64
	Note     *string
}

// TrainingLog returns the user's entire training history as flat rows,
// chronological. The workout column carries the workout's notes when set.
func (db *DB) TrainingLog(ctx context.Context, userID int64) ([]TrainingRow, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT w.started_at, COALESCE(w.notes, ''), e.name,
		       s.set_index, s.reps, s.weight, s.rir, s.note
		FROM sets s
		JOIN workouts w ON w.id = s.workout_id
		JOIN exercises e ON e.id = s.exercise_id
		WHERE w.user_id = $1
		ORDER BY w.started_at, s.id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying training log: %w", err)
	}
	defer rows.Close()

	var result []TrainingRow
	for rows.Next() {
		var r TrainingRow
		if err := rows.Scan(&r.Date, &r.Workout, &r.Exercise,
			&r.SetIndex, &r.Reps, &r.Weight, &r.RIR, &r.Note); err != nil {
			return nil, fmt.Errorf("scanning training row: %w", err)
		}
		r.Date = timeutil.AsUTC(r.Date)
		result = append(result, r)
	}
	return result, rows.Err()
}
