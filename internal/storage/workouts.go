package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/plan"
	"github.com/meltforce/liftbot/internal/timeutil"
)

// EnsurePlan materializes plan entries into a workout's exercise assignments.
// Idempotent: an entry whose exercise name already has an assignment in the
// workout is skipped, and existing assignments are never edited or deleted.
// Display strings fall back to a rendering of the numeric target.
func EnsurePlan(ctx context.Context, q Querier, workoutID int64, entries []plan.Exercise) error {
	rows, err := q.Query(ctx, `
		SELECT e.name
		FROM workout_exercises we
		JOIN exercises e ON e.id = we.exercise_id
		WHERE we.workout_id = $1`,
		workoutID)
	if err != nil {
		return fmt.Errorf("querying existing assignments: %w", err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scanning assignment name: %w", err)
		}
		existing[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, entry := range entries {
		if existing[entry.Name] {
			continue
		}
		exerciseID, err := GetOrCreateExercise(ctx, q, entry.Name, entry.MuscleGroup)
		if err != nil {
			return err
		}

		repsDisplay := entry.TargetRepsDisplay
		if repsDisplay == "" && entry.TargetReps != nil {
			repsDisplay = strconv.Itoa(*entry.TargetReps)
		}
		rirDisplay := entry.TargetRIRDisplay
		if rirDisplay == "" && entry.TargetRIR != nil {
			rirDisplay = strconv.FormatFloat(*entry.TargetRIR, 'g', -1, 64)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO workout_exercises
				(workout_id, exercise_id, target_sets, target_reps, target_reps_display, target_rir, target_rir_display)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''))`,
			workoutID, exerciseID, entry.TargetSets,
			entry.TargetReps, repsDisplay, entry.TargetRIR, rirDisplay)
		if err != nil {
			return fmt.Errorf("inserting assignment for %q: %w", entry.Name, err)
		}
		existing[entry.Name] = true
	}
	return nil
}

// StartOrResumeWorkout returns the user's most recent open workout, creating
// one when none exists, with the plan materialized and assignments listed.
// The bool reports whether an already-open workout was reused. Runs as a
// single transaction. There is intentionally no uniqueness constraint on open
// workouts; always reusing the most recent one is what keeps the "current
// workout" singular.
func (db *DB) StartOrResumeWorkout(ctx context.Context, userID int64, entries []plan.Exercise) (models.WorkoutRow, []models.WorkoutExerciseRow, bool, error) {
	var workout models.WorkoutRow
	var assignments []models.WorkoutExerciseRow
	var resumed bool

	err := db.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT id, user_id, started_at, finished_at, notes
			FROM workouts
			WHERE user_id = $1 AND finished_at IS NULL
			ORDER BY started_at DESC
			LIMIT 1`,
			userID).Scan(&workout.ID, &workout.UserID, &workout.StartedAt, &workout.FinishedAt, &workout.Notes)
		resumed = err == nil
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(ctx, `
				INSERT INTO workouts (user_id, started_at)
				VALUES ($1, $2)
				RETURNING id, user_id, started_at, finished_at, notes`,
				userID, time.Now().UTC(),
			).Scan(&workout.ID, &workout.UserID, &workout.StartedAt, &workout.FinishedAt, &workout.Notes)
		}
		if err != nil {
			return fmt.Errorf("resolving open workout: %w", err)
		}

		if err := EnsurePlan(ctx, tx, workout.ID, entries); err != nil {
			return err
		}

		assignments, err = listAssignments(ctx, tx, workout.ID)
		return err
	})
	if err != nil {
		return models.WorkoutRow{}, nil, false, err
	}
	workout.StartedAt = timeutil.AsUTC(workout.StartedAt)
	return workout, assignments, resumed, nil
}

// Assignments lists a workout's exercise assignments in insertion order.
func (db *DB) Assignments(ctx context.Context, workoutID int64) ([]models.WorkoutExerciseRow, error) {
	return listAssignments(ctx, db.Pool, workoutID)
}

func listAssignments(ctx context.Context, q Querier, workoutID int64) ([]models.WorkoutExerciseRow, error) {
	rows, err := q.Query(ctx, `
		SELECT we.id, we.workout_id, we.exercise_id, e.name,
		       we.target_sets, we.target_reps, we.target_reps_display,
		       we.target_rir, we.target_rir_display
		FROM workout_exercises we
		JOIN exercises e ON e.id = we.exercise_id
		WHERE we.workout_id = $1
		ORDER BY we.id`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying assignments: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutExerciseRow
	for rows.Next() {
		var a models.WorkoutExerciseRow
		if err := rows.Scan(&a.ID, &a.WorkoutID, &a.ExerciseID, &a.ExerciseName,
			&a.TargetSets, &a.TargetReps, &a.TargetRepsDisplay,
			&a.TargetRIR, &a.TargetRIRDisplay); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func getWorkout(ctx context.Context, q Querier, workoutID int64) (models.WorkoutRow, error) {
	var w models.WorkoutRow
	err := q.QueryRow(ctx, `
		SELECT id, user_id, started_at, finished_at, notes
		FROM workouts WHERE id = $1`,
		workoutID).Scan(&w.ID, &w.UserID, &w.StartedAt, &w.FinishedAt, &w.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WorkoutRow{}, ErrWorkoutNotFound
	}
	if err != nil {
		return models.WorkoutRow{}, fmt.Errorf("querying workout: %w", err)
	}
	w.StartedAt = timeutil.AsUTC(w.StartedAt)
	if w.FinishedAt != nil {
		t := timeutil.AsUTC(*w.FinishedAt)
		w.FinishedAt = &t
	}
	return w, nil
}

// ListWorkouts returns a page of the user's workouts, most recent first,
// plus the total count for paging.
func (db *DB) ListWorkouts(ctx context.Context, userID int64, offset, limit int) ([]models.WorkoutRow, int, error) {
	var total int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workouts WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting workouts: %w", err)
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, started_at, finished_at, notes
		FROM workouts
		WHERE user_id = $1
		ORDER BY started_at DESC
		OFFSET $2 LIMIT $3`,
		userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutRow
	for rows.Next() {
		var w models.WorkoutRow
		if err := rows.Scan(&w.ID, &w.UserID, &w.StartedAt, &w.FinishedAt, &w.Notes); err != nil {
			return nil, 0, fmt.Errorf("scanning workout: %w", err)
		}
		w.StartedAt = timeutil.AsUTC(w.StartedAt)
		if w.FinishedAt != nil {
			t := timeutil.AsUTC(*w.FinishedAt)
			w.FinishedAt = &t
		}
		result = append(result, w)
	}
	return result, total, rows.Err()
}
