package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/meltforce/liftbot/internal/metrics"
	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/plan"
	"github.com/meltforce/liftbot/internal/session"
	"github.com/meltforce/liftbot/internal/storage"
	"github.com/meltforce/liftbot/internal/timeutil"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user, err := b.db.GetOrCreateUser(ctx, msg.From.ID)
	if err != nil {
		b.log.Error("resolving user", "telegram_id", msg.From.ID, "error", err)
		b.send(chatID, "Something went wrong, please try again later.")
		return
	}

	if msg.Document != nil {
		b.handleImportDocument(ctx, chatID, user, msg.Document)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, user, msg.Command())
		return
	}

	switch msg.Text {
	case btnWorkout:
		b.handleCommand(ctx, chatID, user, "workout")
		return
	case btnSummary:
		b.handleCommand(ctx, chatID, user, "summary")
		return
	case btnHistory:
		b.handleCommand(ctx, chatID, user, "history")
		return
	case btnSettings:
		b.handleCommand(ctx, chatID, user, "settings")
		return
	}

	if b.sessions.Step(chatID) != session.StepIdle {
		b.feedSession(ctx, chatID, user, msg.Text)
		return
	}

	if a := b.pendingAwait(chatID); a != awaitNothing {
		b.handleAwaitInput(ctx, chatID, user, a, msg.Text)
		return
	}

	b.sendWithMarkup(chatID, "Pick an action from the menu, or /help for commands.", mainKeyboard())
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, user models.UserRow, command string) {
	b.setAwait(chatID, awaitNothing)

	switch command {
	case "start", "help":
		b.sendWithMarkup(chatID,
			"I track your strength training.\n\n"+
				"/workout — start or resume a session\n"+
				"/plan — the current plan's targets\n"+
				"/summary — volume and recent records\n"+
				"/history — past workouts\n"+
				"/prs — personal records\n"+
				"/bodyweight — log today's bodyweight\n"+
				"/export — download your training log\n"+
				"Send a CSV or XLSX file to import history.\n"+
				"/settings — timezone, units, reminders\n"+
				"/cancel — drop the current session",
			mainKeyboard())
		metrics.UpdatesHandled.WithLabelValues("start", metrics.OutcomeOK).Inc()

	case "workout":
		b.handleWorkout(ctx, chatID, user)

	case "plan":
		b.handlePlan(ctx, chatID, user)

	case "summary":
		b.handleSummary(ctx, chatID, user)

	case "history":
		b.sendHistoryPage(ctx, chatID, user, 1, 0)

	case "prs":
		prs, err := b.db.LatestPRs(ctx, user.ID, 10)
		if err != nil {
			b.reportError(chatID, "prs", err)
			return
		}
		b.send(chatID, renderPRs(prs, user))
		metrics.UpdatesHandled.WithLabelValues("prs", metrics.OutcomeOK).Inc()

	case "bodyweight":
		b.setAwait(chatID, awaitBodyweight)
		b.send(chatID, fmt.Sprintf("Enter today's bodyweight in %s:", user.Units))

	case "export":
		b.sendWithMarkup(chatID, "Pick a format:", tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("CSV", "export:csv"),
				tgbotapi.NewInlineKeyboardButtonData("XLSX", "export:xlsx"),
			),
		))

	case "settings":
		b.sendSettingsMenu(ctx, chatID, user)

	case "cancel":
		b.sessions.Cancel(chatID)
		b.sendWithMarkup(chatID, "Session dropped. The workout stays open; /workout resumes it.", mainKeyboard())

	default:
		b.send(chatID, "Unknown command, /help lists what I can do.")
	}
}

func (b *Bot) handleWorkout(ctx context.Context, chatID int64, user models.UserRow) {
	res, err := b.sessions.StartOrResume(ctx, chatID, user.ID)
	if err != nil {
		b.reportError(chatID, "workout", err)
		return
	}
	metrics.WorkoutsStarted.Inc()
	metrics.UpdatesHandled.WithLabelValues("workout", metrics.OutcomeOK).Inc()

	if res.AllDone {
		b.sendWithMarkup(chatID, "This workout has no exercises left.", completeKeyboard())
		return
	}
	greeting := "Workout started."
	if res.Resumed {
		greeting = "Resuming your open workout."
	}
	b.send(chatID, greeting)
	b.sendWithMarkup(chatID, renderCard(res.Card, user), exerciseKeyboard(res.Card.ExerciseID, b.sessions.HasPrev(chatID)))
}

// handlePlan previews the next session's targets without opening a workout.
func (b *Bot) handlePlan(ctx context.Context, chatID int64, user models.UserRow) {
	last, err := b.db.LastWorkoutSummary(ctx, user.ID)
	if err != nil {
		b.reportError(chatID, "plan", err)
		return
	}
	b.send(chatID, renderPlan(plan.Default(), user, last))
	metrics.UpdatesHandled.WithLabelValues("plan", metrics.OutcomeOK).Inc()
}

// feedSession pushes one free-text message through the weight/reps/effort
// prompts. When the user displays RPE, effort input is converted back to the
// stored reps-in-reserve scale before it reaches the machine.
func (b *Bot) feedSession(ctx context.Context, chatID int64, user models.UserRow, text string) {
	if b.sessions.Step(chatID) == session.StepRIR && user.RIRFormat == models.EffortRPE {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), ",", "."), 64); err == nil {
			text = strconv.FormatFloat(10-v, 'g', -1, 64)
		}
	}

	res, err := b.sessions.HandleInput(ctx, chatID, text)
	var vErr *session.ValidationError
	switch {
	case errors.As(err, &vErr):
		metrics.UpdatesHandled.WithLabelValues("set_input", metrics.OutcomeValidation).Inc()
		b.send(chatID, vErr.Message)
		return
	case err != nil:
		b.reportError(chatID, "set_input", err)
		return
	}

	switch res.Next {
	case session.StepReps:
		b.send(chatID, "Reps:")
	case session.StepRIR:
		b.send(chatID, fmt.Sprintf("%s (0-10):", effortLabel(user)))
	case session.StepIdle:
		metrics.SetsSaved.Inc()
		exerciseID := b.sessions.CurrentExercise(chatID)
		b.sendWithMarkup(chatID, renderSetSaved(res.Stats, user), exerciseKeyboard(exerciseID, b.sessions.HasPrev(chatID)))
	}
}

func (b *Bot) handleAwaitInput(ctx context.Context, chatID int64, user models.UserRow, a await, text string) {
	switch a {
	case awaitBodyweight:
		weight, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), ",", "."), 64)
		if err != nil || weight <= 0 || weight > 500 {
			b.send(chatID, "Enter a bodyweight between 0 and 500.")
			return
		}
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if _, err := b.db.UpsertMetric(ctx, user.ID, today, storage.MetricUpdate{Bodyweight: &weight}); err != nil {
			b.reportError(chatID, "bodyweight", err)
			return
		}
		b.setAwait(chatID, awaitNothing)
		b.send(chatID, fmt.Sprintf("Logged %.1f %s for today.", weight, user.Units))

	case awaitTimezone:
		tz := strings.TrimSpace(text)
		if _, err := time.LoadLocation(tz); err != nil {
			b.send(chatID, "Unknown timezone. Use an IANA name like Europe/Berlin.")
			return
		}
		b.applySetting(ctx, chatID, user, storage.UserUpdate{TZ: &tz}, "Timezone set to "+tz+".")

	case awaitWeekdayTime:
		b.applyReminderTime(ctx, chatID, user, text, true)

	case awaitWeekendTime:
		b.applyReminderTime(ctx, chatID, user, text, false)
	}
}

func (b *Bot) handleSummary(ctx context.Context, chatID int64, user models.UserRow) {
	last, err := b.db.LastWorkoutSummary(ctx, user.ID)
	if err != nil {
		b.reportError(chatID, "summary", err)
		return
	}
	week, err := b.db.VolumeForPeriod(ctx, user.ID, 7)
	if err != nil {
		b.reportError(chatID, "summary", err)
		return
	}
	month, err := b.db.VolumeForPeriod(ctx, user.ID, 30)
	if err != nil {
		b.reportError(chatID, "summary", err)
		return
	}
	top, err := b.db.TopExercisesByTonnage(ctx, user.ID, 5)
	if err != nil {
		b.reportError(chatID, "summary", err)
		return
	}

	var sb strings.Builder
	if last == nil {
		sb.WriteString("No workouts yet. /workout starts your first one.")
		b.send(chatID, sb.String())
		return
	}
	fmt.Fprintf(&sb, "Last workout: %s, %d sets, %.1f %s",
		last.StartedAt.Format("02.01.2006"), last.TotalSets, last.Tonnage, user.Units)
	if last.Duration != "" {
		fmt.Fprintf(&sb, " in %s", last.Duration)
	}
	fmt.Fprintf(&sb, "\nVolume 7d: %.1f %s\nVolume 30d: %.1f %s", week, user.Units, month, user.Units)
	if len(top) > 0 {
		sb.WriteString("\n\nTop exercises by tonnage:")
		for i, t := range top {
			fmt.Fprintf(&sb, "\n%d. %s — %.1f %s", i+1, t.Name, t.Tonnage, user.Units)
		}
	}
	b.send(chatID, sb.String())
	metrics.UpdatesHandled.WithLabelValues("summary", metrics.OutcomeOK).Inc()
}

const historyPageSize = 5

func (b *Bot) sendHistoryPage(ctx context.Context, chatID int64, user models.UserRow, page int, editMessageID int) {
	workouts, total, err := b.db.ListWorkouts(ctx, user.ID, (page-1)*historyPageSize, historyPageSize)
	if err != nil {
		b.reportError(chatID, "history", err)
		return
	}
	if total == 0 {
		b.send(chatID, "No workouts yet. /workout starts your first one.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, w := range workouts {
		label := w.StartedAt.Format("02.01.2006")
		if w.FinishedAt == nil {
			label += " (open)"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("history:detail:%d", w.ID)),
		))
	}
	var nav []tgbotapi.InlineKeyboardButton
	if page > 1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️", fmt.Sprintf("history:page:%d", page-1)))
	}
	if page*historyPageSize < total {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("▶️", fmt.Sprintf("history:page:%d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	text := fmt.Sprintf("Workouts %d-%d of %d:", (page-1)*historyPageSize+1, (page-1)*historyPageSize+len(workouts), total)

	if editMessageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, editMessageID, text, markup)
		if _, err := b.api.Send(edit); err != nil {
			b.log.Error("editing history page", "chat_id", chatID, "error", err)
		}
		return
	}
	b.sendWithMarkup(chatID, text, markup)
}

// reportError maps application errors onto user-facing replies.
func (b *Bot) reportError(chatID int64, handler string, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		metrics.UpdatesHandled.WithLabelValues(handler, metrics.OutcomeNotFound).Inc()
		b.send(chatID, "No active session. /workout starts one.")
	case errors.Is(err, storage.ErrWorkoutNotFound), errors.Is(err, storage.ErrExerciseNotFound):
		metrics.UpdatesHandled.WithLabelValues(handler, metrics.OutcomeNotFound).Inc()
		b.send(chatID, "That workout is gone. /workout starts a fresh session.")
	default:
		metrics.UpdatesHandled.WithLabelValues(handler, metrics.OutcomeError).Inc()
		b.log.Error("handler failed", "handler", handler, "chat_id", chatID, "error", err)
		b.send(chatID, "Something went wrong, please try again later.")
	}
}

// userLocation is a convenience for import date handling.
func userLocation(u models.UserRow) *time.Location {
	return timeutil.UserLocation(u.TZ)
}
