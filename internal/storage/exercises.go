package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetOrCreateExercise resolves an exercise by its globally unique name,
// creating it on first reference. The muscle group is only written on
// creation; an existing row keeps whatever it has.
func GetOrCreateExercise(ctx context.Context, q Querier, name, muscleGroup string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `SELECT id FROM exercises WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("querying exercise %q: %w", name, err)
	}

	var mg *string
	if muscleGroup != "" {
		mg = &muscleGroup
	}
	err = q.QueryRow(ctx, `
		INSERT INTO exercises (name, muscle_group)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		name, mg).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating exercise %q: %w", name, err)
	}
	return id, nil
}
