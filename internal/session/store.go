package session

import (
	"context"

	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/plan"
	"github.com/meltforce/liftbot/internal/storage"
)

// Store is the slice of the storage layer the state machine drives. Every
// mutating call is transactional on the storage side. *storage.DB satisfies
// it; tests use an in-memory fake.
type Store interface {
	StartOrResumeWorkout(ctx context.Context, userID int64, entries []plan.Exercise) (models.WorkoutRow, []models.WorkoutExerciseRow, bool, error)
	Assignments(ctx context.Context, workoutID int64) ([]models.WorkoutExerciseRow, error)
	CountSets(ctx context.Context, workoutID, exerciseID int64) (int, error)
	SaveSet(ctx context.Context, workoutID, exerciseID int64, weight float64, reps int, rir float64, note *string) (storage.SetStats, error)
	FinishWorkout(ctx context.Context, workoutID int64) (*storage.WorkoutSummary, error)
	LoadExerciseCard(ctx context.Context, workoutID, exerciseID int64) (*storage.ExerciseCard, error)
}

// Compile-time check: *storage.DB satisfies Store.
var _ Store = (*storage.DB)(nil)
