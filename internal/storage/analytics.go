package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/progression"
	"github.com/meltforce/liftbot/internal/timeutil"
)

// ExerciseBreakdown is one exercise's slice of a workout summary.
type ExerciseBreakdown struct {
	ExerciseID   int64           `json:"exercise_id"`
	ExerciseName string          `json:"exercise_name"`
	Sets         []models.SetRow `json:"sets"`
	Best1RM      float64         `json:"best_1rm"`
}

// WorkoutSummary is the full digest of a workout: totals plus the
// per-exercise breakdown. Duration is empty while the workout is open.
type WorkoutSummary struct {
	WorkoutID  int64               `json:"workout_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
	TotalSets  int                 `json:"total_sets"`
	Tonnage    float64             `json:"tonnage"`
	Duration   string              `json:"duration,omitempty"`
	Exercises  []ExerciseBreakdown `json:"exercises"`
}

// LastWorkoutDigest is the compact last-workout view used by the summary
// screen and the HTTP API.
type LastWorkoutDigest struct {
	WorkoutID  int64      `json:"workout_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	TotalSets  int        `json:"total_sets"`
	Tonnage    float64    `json:"tonnage"`
	Duration   string     `json:"duration,omitempty"`
}

// ExerciseTonnage ranks one exercise by cumulative volume.
type ExerciseTonnage struct {
	Name    string  `json:"name"`
	Tonnage float64 `json:"tonnage"`
}

// FinishWorkout stamps finished_at (idempotent against double-finish) and
// returns the full summary, all in one transaction.
func (db *DB) FinishWorkout(ctx context.Context, workoutID int64) (*WorkoutSummary, error) {
	var summary *WorkoutSummary
	err := db.WithTx(ctx, func(tx pgx.Tx) error {
		workout, err := getWorkout(ctx, tx, workoutID)
		if err != nil {
			return err
		}
		if workout.FinishedAt == nil {
			now := time.Now().UTC()
			if _, err := tx.Exec(ctx,
				`UPDATE workouts SET finished_at = $2 WHERE id = $1`, workoutID, now); err != nil {
				return fmt.Errorf("finishing workout: %w", err)
			}
			workout.FinishedAt = &now
		}
		summary, err = buildSummary(ctx, tx, workout)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// WorkoutDetail returns the same summary shape for historical lookup of
// finished or in-progress workouts. Read-only.
func (db *DB) WorkoutDetail(ctx context.Context, workoutID int64) (*WorkoutSummary, error) {
	workout, err := getWorkout(ctx, db.Pool, workoutID)
	if err != nil {
		return nil, err
	}
	return buildSummary(ctx, db.Pool, workout)
}

// buildSummary groups the workout's sets by exercise in first-occurrence
// order of the flat chronological set list.
func buildSummary(ctx context.Context, q Querier, workout models.WorkoutRow) (*WorkoutSummary, error) {
	rows, err := q.Query(ctx, `
		SELECT s.id, s.workout_id, s.exercise_id, e.name, s.set_index, s.reps, s.weight, s.rir, s.note
		FROM sets s
		JOIN exercises e ON e.id = s.exercise_id
		WHERE s.workout_id = $1
		ORDER BY s.id`,
		workout.ID)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()

	summary := &WorkoutSummary{
		WorkoutID:  workout.ID,
		StartedAt:  workout.StartedAt,
		FinishedAt: workout.FinishedAt,
	}
	if workout.FinishedAt != nil {
		summary.Duration = timeutil.FormatDuration(workout.FinishedAt.Sub(workout.StartedAt))
	}

	index := make(map[int64]int)
	for rows.Next() {
		var s models.SetRow
		var name string
		if err := rows.Scan(&s.ID, &s.WorkoutID, &s.ExerciseID, &name,
			&s.SetIndex, &s.Reps, &s.Weight, &s.RIR, &s.Note); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		summary.TotalSets++
		summary.Tonnage += s.Weight * float64(s.Reps)

		i, ok := index[s.ExerciseID]
		if !ok {
			i = len(summary.Exercises)
			index[s.ExerciseID] = i
			summary.Exercises = append(summary.Exercises, ExerciseBreakdown{
				ExerciseID:   s.ExerciseID,
				ExerciseName: name,
			})
		}
		ex := &summary.Exercises[i]
		ex.Sets = append(ex.Sets, s)
		if est := progression.OneRepMax(s.Weight, s.Reps); est > ex.Best1RM {
			ex.Best1RM = est
		}
	}
	return summary, rows.Err()
}

// LastWorkoutSummary returns the digest of the user's most recent workout,
// or nil when they have none.
func (db *DB) LastWorkoutSummary(ctx context.Context, userID int64) (*LastWorkoutDigest, error) {
	var d LastWorkoutDigest
	err := db.Pool.QueryRow(ctx, `
		SELECT id, started_at, finished_at
		FROM workouts
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT 1`,
		userID).Scan(&d.WorkoutID, &d.StartedAt, &d.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying last workout: %w", err)
	}
	d.StartedAt = timeutil.AsUTC(d.StartedAt)
	if d.FinishedAt != nil {
		t := timeutil.AsUTC(*d.FinishedAt)
		d.FinishedAt = &t
		d.Duration = timeutil.FormatDuration(t.Sub(d.StartedAt))
	}

	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(weight * reps), 0)
		FROM sets WHERE workout_id = $1`,
		d.WorkoutID).Scan(&d.TotalSets, &d.Tonnage)
	if err != nil {
		return nil, fmt.Errorf("querying last workout totals: %w", err)
	}
	return &d, nil
}

// VolumeForPeriod sums weight*reps over all sets of workouts started within
// the trailing window. Returns 0.0, not an error, when there is nothing.
func (db *DB) VolumeForPeriod(ctx context.Context, userID int64, days int) (float64, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	var volume float64
	err := db.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(s.weight * s.reps), 0)
		FROM sets s
		JOIN workouts w ON w.id = s.workout_id
		WHERE w.user_id = $1 AND w.started_at >= $2`,
		userID, since).Scan(&volume)
	if err != nil {
		return 0, fmt.Errorf("querying period volume: %w", err)
	}
	return volume, nil
}

// TopExercisesByTonnage ranks the user's exercises by cumulative volume,
// descending, ties broken by name so a single call is deterministic.
func (db *DB) TopExercisesByTonnage(ctx context.Context, userID int64, limit int) ([]ExerciseTonnage, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT e.name, SUM(s.weight * s.reps) AS tonnage
		FROM sets s
		JOIN exercises e ON e.id = s.exercise_id
		JOIN workouts w ON w.id = s.workout_id
		WHERE w.user_id = $1
		GROUP BY e.name
		ORDER BY tonnage DESC, e.name
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top exercises: %w", err)
	}
	defer rows.Close()

	var result []ExerciseTonnage
	for rows.Next() {
		var t ExerciseTonnage
		if err := rows.Scan(&t.Name, &t.Tonnage); err != nil {
			return nil, fmt.Errorf("scanning exercise tonnage: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
