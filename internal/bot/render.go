package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/plan"
	"github.com/meltforce/liftbot/internal/storage"
)

// Main menu button labels. Free-text routing matches on these, so the
// handler table and the keyboard must agree.
const (
	btnWorkout  = "🏋 Workout"
	btnSummary  = "📊 Summary"
	btnHistory  = "🗓 History"
	btnSettings = "⚙️ Settings"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnWorkout),
			tgbotapi.NewKeyboardButton(btnSummary),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnHistory),
			tgbotapi.NewKeyboardButton(btnSettings),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func exerciseKeyboard(exerciseID int64, hasPrev bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("➕ Record set", fmt.Sprintf("workout:set:%d", exerciseID)),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("✅ Finish exercise", fmt.Sprintf("workout:finish_ex:%d", exerciseID)),
			tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", fmt.Sprintf("workout:skip:%d", exerciseID)),
		},
	}
	if hasPrev {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("◀️ Back", "workout:back"),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🏁 Finish workout", "workout:complete"),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func completeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Back", "workout:back"),
			tgbotapi.NewInlineKeyboardButtonData("🏁 Finish workout", "workout:complete"),
		),
	)
}

// renderCard formats the active-exercise card.
func renderCard(card *storage.ExerciseCard, u models.UserRow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", card.ExerciseName)
	fmt.Fprintf(&sb, "Target: %d × %s @ %s %s\n",
		card.TargetSets, card.TargetRepsDisplay, effortLabel(u), card.TargetRIRDisplay)
	fmt.Fprintf(&sb, "Done: %d of %d sets", card.CompletedSets, card.TargetSets)
	if card.LastResult != "" {
		fmt.Fprintf(&sb, "\nLast: %s", card.LastResult)
	}
	if card.Suggested > 0 {
		fmt.Fprintf(&sb, "\nSuggested: %.1f %s", card.Suggested, u.Units)
	}
	return sb.String()
}

// renderPlan previews the plan's targets plus when the user last trained.
func renderPlan(entries []plan.Exercise, u models.UserRow, last *storage.LastWorkoutDigest) string {
	var sb strings.Builder
	sb.WriteString("Current plan:")
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n%s — %d × %s @ %s %s", e.Name, e.TargetSets, e.RepsText(), effortLabel(u), e.RIRText())
	}
	if last != nil {
		fmt.Fprintf(&sb, "\n\nLast workout: %s", last.StartedAt.Format("02.01.2006"))
	} else {
		sb.WriteString("\n\nNo workouts yet. /workout starts your first one.")
	}
	return sb.String()
}

// renderSetSaved formats the live stats line shown after each saved set.
func renderSetSaved(stats *storage.SetStats, u models.UserRow) string {
	text := fmt.Sprintf("Set %d saved. Sets: %d, tonnage: %.1f %s, avg %s: %.1f",
		stats.SetIndex, stats.SetsDone, stats.Tonnage, u.Units,
		effortLabel(u), effortValue(u, stats.AvgRIR))
	if stats.NewPR != nil {
		text += fmt.Sprintf("\n🎉 New PR: %.1f %s × %d", stats.NewPR.Weight, u.Units, stats.NewPR.Reps)
	}
	return text
}

// renderSummary formats a finished (or historical) workout digest.
func renderSummary(s *storage.WorkoutSummary, u models.UserRow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Workout on %s\n", s.StartedAt.Format("02.01.2006"))
	if s.Duration != "" {
		fmt.Fprintf(&sb, "Duration: %s\n", s.Duration)
	}
	fmt.Fprintf(&sb, "Sets: %d, tonnage: %.1f %s\n", s.TotalSets, s.Tonnage, u.Units)
	for _, ex := range s.Exercises {
		var parts []string
		for _, set := range ex.Sets {
			parts = append(parts, fmt.Sprintf("%.1f×%d", set.Weight, set.Reps))
		}
		fmt.Fprintf(&sb, "\n%s: %s (best 1RM ≈ %.1f)", ex.ExerciseName, strings.Join(parts, ", "), ex.Best1RM)
	}
	return sb.String()
}

func renderPRs(prs []models.PRRow, u models.UserRow) string {
	if len(prs) == 0 {
		return "No personal records yet. They appear as you log sets."
	}
	var sb strings.Builder
	sb.WriteString("Personal records:")
	for _, pr := range prs {
		fmt.Fprintf(&sb, "\n%s — %.1f %s × %d (%s)",
			pr.ExerciseName, pr.Weight, u.Units, pr.Reps, pr.Date.Format("02.01.2006"))
	}
	return sb.String()
}

// effortLabel is the user's preferred effort-scale name. The stored value is
// always reps-in-reserve; RPE just flips the scale for display.
func effortLabel(u models.UserRow) string {
	if u.RIRFormat == models.EffortRPE {
		return models.EffortRPE
	}
	return models.EffortRIR
}

func effortValue(u models.UserRow, rir float64) float64 {
	if u.RIRFormat == models.EffortRPE {
		return 10 - rir
	}
	return rir
}
