// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesHandled counts Telegram updates by handler and outcome.
	UpdatesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liftbot_updates_handled_total",
		Help: "Telegram updates processed, by handler and outcome",
	}, []string{"handler", "outcome"})

	// SetsSaved counts sets written through the session machine.
	SetsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liftbot_sets_saved_total",
		Help: "Sets recorded via the workout session flow",
	})

	// WorkoutsStarted counts StartOrResume calls that created or reopened a workout.
	WorkoutsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liftbot_workouts_started_total",
		Help: "Workout sessions started or resumed",
	})

	// WorkoutsCompleted counts finished workouts.
	WorkoutsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liftbot_workouts_completed_total",
		Help: "Workouts completed",
	})

	// RemindersSent counts reminder deliveries by outcome.
	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liftbot_reminders_sent_total",
		Help: "Reminder messages sent, by outcome",
	}, []string{"outcome"})

	// ImportRows counts spreadsheet import rows by result.
	ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liftbot_import_rows_total",
		Help: "Spreadsheet import rows, by result",
	}, []string{"result"})

	// DispatchQueueDepth tracks per-user dispatch queues currently alive.
	DispatchQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "liftbot_dispatch_queues",
		Help: "Per-user dispatch queues currently active",
	})
)

// Outcome label values.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeNotFound   = "not_found"
	OutcomeError      = "error"
)
