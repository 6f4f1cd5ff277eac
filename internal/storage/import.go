package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ImportSet is one parsed spreadsheet set destined for a workout.
type ImportSet struct {
	Exercise string
	SetIndex int
	Reps     int
	Weight   float64
	RIR      *float64
	Note     *string
}

// ImportWorkout is one parsed spreadsheet workout: a named session on a date
// with its sets and the per-exercise target-set counts derived from the sheet.
type ImportWorkout struct {
	Name      string
	StartedAt time.Time
	// TargetSets maps exercise name to the highest set index observed for it
	// in the sheet, including rows that were otherwise skipped.
	TargetSets map[string]int
	Sets       []ImportSet
}

// ImportWorkouts writes parsed spreadsheet workouts in one transaction.
// Each ImportWorkout becomes a finished workout (finish = start + 1h) with
// the sheet's name in the notes column. Exercises are resolved or created by
// name. Returns the number of workouts and sets inserted.
func (db *DB) ImportWorkouts(ctx context.Context, userID int64, workouts []ImportWorkout) (int, int, error) {
	var workoutsInserted, setsInserted int
	err := db.WithTx(ctx, func(tx pgx.Tx) error {
		for _, iw := range workouts {
			started := iw.StartedAt.UTC()
			finished := started.Add(time.Hour)
			var notes *string
			if iw.Name != "" {
				notes = &iw.Name
			}

			var workoutID int64
			err := tx.QueryRow(ctx, `
				INSERT INTO workouts (user_id, started_at, finished_at, notes)
				VALUES ($1, $2, $3, $4)
				RETURNING id`,
				userID, started, finished, notes).Scan(&workoutID)
			if err != nil {
				return fmt.Errorf("inserting imported workout %q: %w", iw.Name, err)
			}
			workoutsInserted++

			exerciseIDs := make(map[string]int64)
			for name, targetSets := range iw.TargetSets {
				exerciseID, err := GetOrCreateExercise(ctx, tx, name, "")
				if err != nil {
					return err
				}
				exerciseIDs[name] = exerciseID
				_, err = tx.Exec(ctx, `
					INSERT INTO workout_exercises (workout_id, exercise_id, target_sets)
					VALUES ($1, $2, $3)
					ON CONFLICT ON CONSTRAINT uq_workout_exercise DO NOTHING`,
					workoutID, exerciseID, targetSets)
				if err != nil {
					return fmt.Errorf("inserting imported assignment for %q: %w", name, err)
				}
			}

			for _, set := range iw.Sets {
				exerciseID, ok := exerciseIDs[set.Exercise]
				if !ok {
					exerciseID, err = GetOrCreateExercise(ctx, tx, set.Exercise, "")
					if err != nil {
						return err
					}
					exerciseIDs[set.Exercise] = exerciseID
				}
				_, err = tx.Exec(ctx, `
					INSERT INTO sets (workout_id, exercise_id, set_index, reps, weight, rir, note)
					VALUES ($1, $2, $3, $4, $5, $6, $7)`,
					workoutID, exerciseID, set.SetIndex, set.Reps, set.Weight, set.RIR, set.Note)
				if err != nil {
					return fmt.Errorf("inserting imported set: %w", err)
				}
				setsInserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return workoutsInserted, setsInserted, nil
}
