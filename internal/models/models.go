package models

import "time"

// Unit preference values for UserRow.Units.
const (
	UnitsKg = "kg"
	UnitsLb = "lb"
)

// Effort display formats for UserRow.RIRFormat. The stored value is always
// reps-in-reserve; RPE is an alternate display convention.
const (
	EffortRIR = "RIR"
	EffortRPE = "RPE"
)

// UserRow is a bot user keyed by Telegram identity.
type UserRow struct {
	ID              int64   `json:"id"`
	TelegramID      int64   `json:"telegram_id"`
	TZ              string  `json:"tz"`
	Units           string  `json:"units"`
	RIRFormat       string  `json:"rir_format"`
	ReminderEnabled bool    `json:"reminder_enabled"`
	ReminderWeekday *string `json:"reminder_weekday,omitempty"`
	ReminderWeekend *string `json:"reminder_weekend,omitempty"`
}

// WorkoutRow is one training session. FinishedAt == nil means in progress.
type WorkoutRow struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// WorkoutExerciseRow assigns an exercise to a workout with its targets.
// The display strings are authoritative for rendering; the numeric columns
// are best-effort parses of them.
type WorkoutExerciseRow struct {
	ID                int64    `json:"id"`
	WorkoutID         int64    `json:"workout_id"`
	ExerciseID        int64    `json:"exercise_id"`
	ExerciseName      string   `json:"exercise_name"`
	TargetSets        int      `json:"target_sets"`
	TargetReps        *int     `json:"target_reps,omitempty"`
	TargetRepsDisplay *string  `json:"target_reps_display,omitempty"`
	TargetRIR         *float64 `json:"target_rir,omitempty"`
	TargetRIRDisplay  *string  `json:"target_rir_display,omitempty"`
}

// SetRow is one recorded set. Append-only; SetIndex is 1-based per exercise
// within the workout.
type SetRow struct {
	ID         int64    `json:"id"`
	WorkoutID  int64    `json:"workout_id"`
	ExerciseID int64    `json:"exercise_id"`
	SetIndex   int      `json:"set_index"`
	Reps       int      `json:"reps"`
	Weight     float64  `json:"weight"`
	RIR        *float64 `json:"rir,omitempty"`
	Note       *string  `json:"note,omitempty"`
}

// PRRow is a dated snapshot of a record-breaking set for a user+exercise.
// Rows accumulate over time; they are never updated in place.
type PRRow struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ExerciseID   int64     `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	Date         time.Time `json:"date"`
	Reps         int       `json:"reps"`
	Weight       float64   `json:"weight"`
}

// MetricRow is a daily body metric entry, unique per user+date.
type MetricRow struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Date       time.Time `json:"date"`
	Bodyweight *float64  `json:"bodyweight,omitempty"`
	SleepH     *float64  `json:"sleep_h,omitempty"`
	Calories   *int      `json:"calories,omitempty"`
}
