package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/progression"
)

// UpdatePR reconciles the personal record for a user+exercise against the
// best set on file. The best-set lookup is scoped to the user's own workouts;
// ranking uses weight*reps to pick the candidate set and the Epley estimate
// to decide whether it beats the standing record. Inserts at most one row
// per call and must run inside the caller's transaction, together with the
// set-save that triggered it. Re-running is a no-op once the record stands,
// so at-least-once invocation is safe. The bool reports whether a new row
// was inserted.
func UpdatePR(ctx context.Context, q Querier, userID, exerciseID int64) (*models.PRRow, bool, error) {
	var bestWeight float64
	var bestReps int
	err := q.QueryRow(ctx, `
		SELECT s.weight, s.reps
		FROM sets s
		JOIN workouts w ON w.id = s.workout_id
		WHERE s.exercise_id = $1 AND w.user_id = $2
		ORDER BY s.weight * s.reps DESC
		LIMIT 1`,
		exerciseID, userID).Scan(&bestWeight, &bestReps)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying best set: %w", err)
	}

	candidate := progression.OneRepMax(bestWeight, bestReps)

	var existing models.PRRow
	err = q.QueryRow(ctx, `
		SELECT id, user_id, exercise_id, date, reps, weight
		FROM prs
		WHERE user_id = $1 AND exercise_id = $2
		ORDER BY date DESC, id DESC
		LIMIT 1`,
		userID, exerciseID).Scan(&existing.ID, &existing.UserID, &existing.ExerciseID,
		&existing.Date, &existing.Reps, &existing.Weight)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No record yet; fall through to insert.
	case err != nil:
		return nil, false, fmt.Errorf("querying existing PR: %w", err)
	default:
		if progression.OneRepMax(existing.Weight, existing.Reps) >= candidate {
			return &existing, false, nil
		}
	}

	pr := models.PRRow{
		UserID:     userID,
		ExerciseID: exerciseID,
		Date:       time.Now().UTC().Truncate(24 * time.Hour),
		Reps:       bestReps,
		Weight:     bestWeight,
	}
	err = q.QueryRow(ctx, `
		INSERT INTO prs (user_id, exercise_id, date, reps, weight)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		pr.UserID, pr.ExerciseID, pr.Date, pr.Reps, pr.Weight).Scan(&pr.ID)
	if err != nil {
		return nil, false, fmt.Errorf("inserting PR: %w", err)
	}
	return &pr, true, nil
}

// LatestPRs returns the user's most recent personal records, newest first.
func (db *DB) LatestPRs(ctx context.Context, userID int64, limit int) ([]models.PRRow, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT p.id, p.user_id, p.exercise_id, e.name, p.date, p.reps, p.weight
		FROM prs p
		JOIN exercises e ON e.id = p.exercise_id
		WHERE p.user_id = $1
		ORDER BY p.date DESC, p.id DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying latest PRs: %w", err)
	}
	defer rows.Close()

	var result []models.PRRow
	for rows.Next() {
		var p models.PRRow
		if err := rows.Scan(&p.ID, &p.UserID, &p.ExerciseID, &p.ExerciseName,
			&p.Date, &p.Reps, &p.Weight); err != nil {
			return nil, fmt.Errorf("scanning PR: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
