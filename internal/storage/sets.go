package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftbot/internal/models"
)

// SetStats is the live feedback returned after a set is saved: running
// totals over all sets of that exercise within the workout.
type SetStats struct {
	SetIndex int           `json:"set_index"`
	SetsDone int           `json:"sets_done"`
	Tonnage  float64       `json:"tonnage"`
	AvgRIR   float64       `json:"avg_rir"`
	NewPR    *models.PRRow `json:"new_pr,omitempty"`
}

// CountSets returns how many sets are recorded for an exercise within a
// workout. The next set index is this plus one.
func (db *DB) CountSets(ctx context.Context, workoutID, exerciseID int64) (int, error) {
	return countSets(ctx, db.Pool, workoutID, exerciseID)
}

func countSets(ctx context.Context, q Querier, workoutID, exerciseID int64) (int, error) {
	var n int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM sets WHERE workout_id = $1 AND exercise_id = $2`,
		workoutID, exerciseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting sets: %w", err)
	}
	return n, nil
}

// SaveSet appends one set and reconciles the PR, all in one transaction.
// The set index is computed server-side (count+1) so concurrent entry can
// never produce duplicate or gapped indices, and the PR pass shares the
// transaction so a set is never committed without it having run.
func (db *DB) SaveSet(ctx context.Context, workoutID, exerciseID int64, weight float64, reps int, rir float64, note *string) (SetStats, error) {
	var stats SetStats

	err := db.WithTx(ctx, func(tx pgx.Tx) error {
		workout, err := getWorkout(ctx, tx, workoutID)
		if err != nil {
			return err
		}

		setIndex, err := countSets(ctx, tx, workoutID, exerciseID)
		if err != nil {
			return err
		}
		setIndex++

		_, err = tx.Exec(ctx, `
			INSERT INTO sets (workout_id, exercise_id, set_index, reps, weight, rir, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			workoutID, exerciseID, setIndex, reps, weight, rir, note)
		if err != nil {
			return fmt.Errorf("inserting set: %w", err)
		}

		pr, inserted, err := UpdatePR(ctx, tx, workout.UserID, exerciseID)
		if err != nil {
			return err
		}

		var avgRIR *float64
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(weight * reps), 0), COUNT(*), AVG(rir)
			FROM sets
			WHERE workout_id = $1 AND exercise_id = $2`,
			workoutID, exerciseID).Scan(&stats.Tonnage, &stats.SetsDone, &avgRIR)
		if err != nil {
			return fmt.Errorf("querying set stats: %w", err)
		}

		stats.SetIndex = setIndex
		if avgRIR != nil {
			stats.AvgRIR = *avgRIR
		}
		if inserted {
			stats.NewPR = pr
		}
		return nil
	})
	if err != nil {
		return SetStats{}, err
	}
	return stats, nil
}
