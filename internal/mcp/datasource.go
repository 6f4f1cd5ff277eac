package mcp

import (
	"context"

	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. *storage.DB satisfies
// it; tests use a fake.
type DataSource interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (models.UserRow, error)
	LastWorkoutSummary(ctx context.Context, userID int64) (*storage.LastWorkoutDigest, error)
	VolumeForPeriod(ctx context.Context, userID int64, days int) (float64, error)
	TopExercisesByTonnage(ctx context.Context, userID int64, limit int) ([]storage.ExerciseTonnage, error)
	LatestPRs(ctx context.Context, userID int64, limit int) ([]models.PRRow, error)
	ListWorkouts(ctx context.Context, userID int64, offset, limit int) ([]models.WorkoutRow, int, error)
	WorkoutDetail(ctx context.Context, workoutID int64) (*storage.WorkoutSummary, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
