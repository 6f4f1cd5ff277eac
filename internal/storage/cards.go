package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftbot/internal/progression"
)

// ExerciseCard is everything the conversation needs to present one active
// exercise: targets, progress in this workout, and how the exercise went
// last time.
type ExerciseCard struct {
	WorkoutID         int64
	ExerciseID        int64
	ExerciseName      string
	TargetSets        int
	TargetRepsDisplay string
	TargetRIRDisplay  string
	CompletedSets     int
	LastResult        string
	// Suggested is the proposed working weight, autoregulated from the last
	// occurrence's weight and effort against the target.
	Suggested float64
}

// LoadExerciseCard builds the card for one assignment. LastResult describes
// the most recent finished prior workout of the same user containing this
// exercise: date, the sets as "weight×reps" pairs, and the average RIR.
// Empty when there is no history.
func (db *DB) LoadExerciseCard(ctx context.Context, workoutID, exerciseID int64) (*ExerciseCard, error) {
	workout, err := getWorkout(ctx, db.Pool, workoutID)
	if err != nil {
		return nil, err
	}

	card := &ExerciseCard{WorkoutID: workoutID, ExerciseID: exerciseID}
	var targetReps, targetRIRDisplay *string
	var targetRIR *float64
	err = db.Pool.QueryRow(ctx, `
		SELECT e.name, we.target_sets, we.target_reps_display, we.target_rir, we.target_rir_display
		FROM workout_exercises we
		JOIN exercises e ON e.id = we.exercise_id
		WHERE we.workout_id = $1 AND we.exercise_id = $2`,
		workoutID, exerciseID).Scan(&card.ExerciseName, &card.TargetSets, &targetReps, &targetRIR, &targetRIRDisplay)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying assignment: %w", err)
	}
	card.TargetRepsDisplay = orDash(targetReps)
	card.TargetRIRDisplay = orDash(targetRIRDisplay)

	card.CompletedSets, err = countSets(ctx, db.Pool, workoutID, exerciseID)
	if err != nil {
		return nil, err
	}

	line, lastWeight, avgRIR, err := db.lastResultLine(ctx, workout.UserID, workoutID, exerciseID)
	if err != nil {
		return nil, err
	}
	card.LastResult = line
	card.Suggested = progression.SuggestNextWeight(lastWeight, avgRIR, targetRIR)
	return card, nil
}

// lastResultLine describes the most recent finished prior occurrence of the
// exercise and reports the data the weight suggestion needs: the heaviest
// weight of that occurrence and its average RIR.
func (db *DB) lastResultLine(ctx context.Context, userID, currentWorkoutID, exerciseID int64) (string, *float64, *float64, error) {
	var lastWorkoutID int64
	var started string
	err := db.Pool.QueryRow(ctx, `
		SELECT w.id, to_char(w.started_at, 'DD.MM.YYYY')
		FROM workouts w
		WHERE w.user_id = $1
		  AND w.id <> $2
		  AND w.finished_at IS NOT NULL
		  AND EXISTS (SELECT 1 FROM sets s WHERE s.workout_id = w.id AND s.exercise_id = $3)
		ORDER BY w.finished_at DESC
		LIMIT 1`,
		userID, currentWorkoutID, exerciseID).Scan(&lastWorkoutID, &started)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, nil, nil
	}
	if err != nil {
		return "", nil, nil, fmt.Errorf("querying last occurrence: %w", err)
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT weight, reps, rir
		FROM sets
		WHERE workout_id = $1 AND exercise_id = $2
		ORDER BY set_index`,
		lastWorkoutID, exerciseID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("querying last occurrence sets: %w", err)
	}
	defer rows.Close()

	var parts []string
	var rirSum, maxWeight float64
	var n, rirCount int
	for rows.Next() {
		var weight float64
		var reps int
		var rir *float64
		if err := rows.Scan(&weight, &reps, &rir); err != nil {
			return "", nil, nil, fmt.Errorf("scanning last occurrence set: %w", err)
		}
		parts = append(parts, fmt.Sprintf("%.1f×%d", weight, reps))
		if weight > maxWeight {
			maxWeight = weight
		}
		if rir != nil {
			rirSum += *rir
			rirCount++
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return "", nil, nil, err
	}
	if n == 0 {
		return "", nil, nil, nil
	}

	var avgRIR *float64
	if rirCount > 0 {
		v := rirSum / float64(rirCount)
		avgRIR = &v
	}
	line := fmt.Sprintf("%s: %s", started, strings.Join(parts, ", "))
	if avgRIR != nil {
		line += fmt.Sprintf(" (RIR %.1f)", *avgRIR)
	}
	return line, &maxWeight, avgRIR, nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
