package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftbot/internal/models"
)

const userColumns = `id, telegram_id, tz, units, rir_format, reminder_enabled, reminder_weekday, reminder_weekend`

// GetOrCreateUser finds or creates a user by Telegram identity. New users get
// the column defaults (UTC, kg, RIR, reminders off).
func (db *DB) GetOrCreateUser(ctx context.Context, telegramID int64) (models.UserRow, error) {
	row := db.Pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id)
		VALUES ($1)
		ON CONFLICT (telegram_id) DO UPDATE SET telegram_id = EXCLUDED.telegram_id
		RETURNING `+userColumns,
		telegramID)
	u, err := scanUser(row)
	if err != nil {
		return models.UserRow{}, fmt.Errorf("getting or creating user: %w", err)
	}
	return u, nil
}

// GetUserByTelegramID loads a user by Telegram identity without creating one.
func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (models.UserRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserRow{}, ErrUserNotFound
	}
	if err != nil {
		return models.UserRow{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// UserUpdate enumerates the settings a user may change. Only non-nil fields
// are applied; there is deliberately no generic field→value path.
type UserUpdate struct {
	TZ              *string
	Units           *string
	RIRFormat       *string
	ReminderEnabled *bool
	ReminderWeekday *string
	ReminderWeekend *string
}

// ApplyUserUpdate writes the non-nil fields of upd to the user's row and
// returns the updated row.
func (db *DB) ApplyUserUpdate(ctx context.Context, telegramID int64, upd UserUpdate) (models.UserRow, error) {
	row := db.Pool.QueryRow(ctx, `
		UPDATE users SET
			tz               = COALESCE($2, tz),
			units            = COALESCE($3, units),
			rir_format       = COALESCE($4, rir_format),
			reminder_enabled = COALESCE($5, reminder_enabled),
			reminder_weekday = COALESCE($6, reminder_weekday),
			reminder_weekend = COALESCE($7, reminder_weekend)
		WHERE telegram_id = $1
		RETURNING `+userColumns,
		telegramID, upd.TZ, upd.Units, upd.RIRFormat,
		upd.ReminderEnabled, upd.ReminderWeekday, upd.ReminderWeekend)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserRow{}, ErrUserNotFound
	}
	if err != nil {
		return models.UserRow{}, fmt.Errorf("updating user settings: %w", err)
	}
	return u, nil
}

// DeleteUser removes a user and, via cascading foreign keys, every workout,
// set, PR and metric they own.
func (db *DB) DeleteUser(ctx context.Context, telegramID int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM users WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsersWithReminders returns every user with reminders enabled, for the
// scheduler to build its cron entries from.
func (db *DB) ListUsersWithReminders(ctx context.Context) ([]models.UserRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE reminder_enabled ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying reminder users: %w", err)
	}
	defer rows.Close()

	var result []models.UserRow
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (models.UserRow, error) {
	var u models.UserRow
	err := row.Scan(&u.ID, &u.TelegramID, &u.TZ, &u.Units, &u.RIRFormat,
		&u.ReminderEnabled, &u.ReminderWeekday, &u.ReminderWeekend)
	return u, err
}
