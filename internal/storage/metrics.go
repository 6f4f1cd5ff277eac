package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/liftbot/internal/models"
)

// MetricUpdate carries the optional daily body metrics; nil fields leave the
// stored value untouched.
type MetricUpdate struct {
	Bodyweight *float64
	SleepH     *float64
	Calories   *int
}

// UpsertMetric writes a user's body metrics for a day, one row per
// (user, date).
func (db *DB) UpsertMetric(ctx context.Context, userID int64, date time.Time, upd MetricUpdate) (models.MetricRow, error) {
	var m models.MetricRow
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO metrics (user_id, date, bodyweight, sleep_h, calories)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, date) DO UPDATE SET
			bodyweight = COALESCE(EXCLUDED.bodyweight, metrics.bodyweight),
			sleep_h    = COALESCE(EXCLUDED.sleep_h, metrics.sleep_h),
			calories   = COALESCE(EXCLUDED.calories, metrics.calories)
		RETURNING id, user_id, date, bodyweight, sleep_h, calories`,
		userID, date, upd.Bodyweight, upd.SleepH, upd.Calories,
	).Scan(&m.ID, &m.UserID, &m.Date, &m.Bodyweight, &m.SleepH, &m.Calories)
	if err != nil {
		return models.MetricRow{}, fmt.Errorf("upserting metric: %w", err)
	}
	return m, nil
}

// LatestMetrics returns the user's most recent daily entries, newest first.
func (db *DB) LatestMetrics(ctx context.Context, userID int64, limit int) ([]models.MetricRow, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, date, bodyweight, sleep_h, calories
		FROM metrics
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying metrics: %w", err)
	}
	defer rows.Close()

	var result []models.MetricRow
	for rows.Next() {
		var m models.MetricRow
		if err := rows.Scan(&m.ID, &m.UserID, &m.Date, &m.Bodyweight, &m.SleepH, &m.Calories); err != nil {
			return nil, fmt.Errorf("scanning metric: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
