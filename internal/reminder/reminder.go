// Package reminder schedules per-user training reminders. Each user with
// reminders enabled contributes up to two cron entries, one for weekdays and
// one for weekends, evaluated in the user's own timezone.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/meltforce/liftbot/internal/metrics"
	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/storage"
	"github.com/robfig/cron/v3"
)

const defaultMessage = "Time to train. Start your workout when you are ready."

// Notifier delivers a reminder to a user. The Telegram transport satisfies it.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, text string) error
}

// Scheduler owns the cron runner and rebuilds it from the users table.
type Scheduler struct {
	db     *storage.DB
	notify Notifier
	log    *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a Scheduler. Call Reload to load entries and start ticking.
// The notifier may be nil at construction and set later; the bot needs the
// scheduler for settings edits and the scheduler needs the bot to deliver.
func New(db *storage.DB, notify Notifier, log *slog.Logger) *Scheduler {
	return &Scheduler{db: db, notify: notify, log: log}
}

// SetNotifier installs the delivery channel. Must be called before Reload.
func (s *Scheduler) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notify = n
	s.mu.Unlock()
}

// Reload replaces the running schedule with one rebuilt from the users table.
// Called at startup and after any reminder-settings edit.
func (s *Scheduler) Reload(ctx context.Context) error {
	users, err := s.db.ListUsersWithReminders(ctx)
	if err != nil {
		return fmt.Errorf("loading reminder users: %w", err)
	}

	c := cron.New()
	var entries int
	for _, u := range users {
		entries += s.addUserEntries(c, u)
	}

	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = c
	s.mu.Unlock()

	c.Start()
	s.log.Info("reminder schedule loaded", "users", len(users), "entries", entries)
	return nil
}

// Stop halts the runner. Jobs already started keep running to completion.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) addUserEntries(c *cron.Cron, u models.UserRow) int {
	var added int
	add := func(hhmm *string, days string) {
		if hhmm == nil {
			return
		}
		spec, err := Spec(u.TZ, *hhmm, days)
		if err != nil {
			s.log.Warn("skipping reminder entry", "telegram_id", u.TelegramID, "time", *hhmm, "error", err)
			return
		}
		telegramID := u.TelegramID
		_, err = c.AddFunc(spec, func() { s.fire(telegramID) })
		if err != nil {
			s.log.Warn("skipping reminder entry", "telegram_id", u.TelegramID, "spec", spec, "error", err)
			return
		}
		added++
	}
	add(u.ReminderWeekday, "MON-FRI")
	add(u.ReminderWeekend, "SAT,SUN")
	return added
}

func (s *Scheduler) fire(telegramID int64) {
	s.mu.Lock()
	notify := s.notify
	s.mu.Unlock()
	if notify == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := notify.Notify(ctx, telegramID, defaultMessage); err != nil {
		metrics.RemindersSent.WithLabelValues(metrics.OutcomeError).Inc()
		s.log.Error("sending reminder", "telegram_id", telegramID, "error", err)
		return
	}
	metrics.RemindersSent.WithLabelValues(metrics.OutcomeOK).Inc()
}

// Spec builds a cron expression firing at hhmm on the given days, evaluated
// in tz. hhmm is "HH:MM" in 24-hour time.
func Spec(tz, hhmm, days string) (string, error) {
	hour, minute, err := parseHHMM(hhmm)
	if err != nil {
		return "", err
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return fmt.Sprintf("CRON_TZ=%s %d %d * * %s", tz, minute, hour, days), nil
}

func parseHHMM(hhmm string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(hhmm), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time %q is not HH:MM", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time %q has a bad hour", hhmm)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q has a bad minute", hhmm)
	}
	return hour, minute, nil
}
