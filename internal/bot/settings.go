package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/storage"
)

func (b *Bot) sendSettingsMenu(ctx context.Context, chatID int64, user models.UserRow) {
	reminders := "off"
	if user.ReminderEnabled {
		reminders = "on"
	}
	text := fmt.Sprintf(
		"Settings\nTimezone: %s\nUnits: %s\nEffort scale: %s\nReminders: %s (weekdays %s, weekends %s)",
		user.TZ, user.Units, user.RIRFormat, reminders,
		orUnset(user.ReminderWeekday), orUnset(user.ReminderWeekend))

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌍 Timezone", "settings:tz"),
			tgbotapi.NewInlineKeyboardButtonData("⚖️ Units", "settings:units"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💪 Effort scale", "settings:effort"),
			tgbotapi.NewInlineKeyboardButtonData("🔔 Reminders", "settings:rem_toggle"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🕘 Weekday time", "settings:rem_weekday"),
			tgbotapi.NewInlineKeyboardButtonData("🕙 Weekend time", "settings:rem_weekend"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete all my data", "settings:reset"),
		),
	)
	b.sendWithMarkup(chatID, text, markup)
}

func (b *Bot) handleSettingsCallback(ctx context.Context, chatID int64, user models.UserRow, parts []string) {
	if len(parts) < 2 {
		return
	}
	switch parts[1] {
	case "tz":
		b.setAwait(chatID, awaitTimezone)
		b.send(chatID, "Send your timezone as an IANA name, for example Europe/Berlin.")

	case "units":
		units := models.UnitsKg
		if user.Units == models.UnitsKg {
			units = models.UnitsLb
		}
		b.applySetting(ctx, chatID, user, storage.UserUpdate{Units: &units}, "Units set to "+units+".")

	case "effort":
		format := models.EffortRIR
		if user.RIRFormat == models.EffortRIR {
			format = models.EffortRPE
		}
		b.applySetting(ctx, chatID, user, storage.UserUpdate{RIRFormat: &format}, "Effort scale set to "+format+".")

	case "rem_toggle":
		enabled := !user.ReminderEnabled
		state := "off"
		if enabled {
			state = "on"
		}
		b.applySetting(ctx, chatID, user, storage.UserUpdate{ReminderEnabled: &enabled}, "Reminders "+state+".")

	case "rem_weekday":
		b.setAwait(chatID, awaitWeekdayTime)
		b.send(chatID, "Send the weekday reminder time as HH:MM.")

	case "rem_weekend":
		b.setAwait(chatID, awaitWeekendTime)
		b.send(chatID, "Send the weekend reminder time as HH:MM.")

	case "reset":
		b.sendWithMarkup(chatID, "Delete your account and every workout, set, record and metric? This cannot be undone.",
			tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Yes, delete everything", "settings:reset_confirm"),
					tgbotapi.NewInlineKeyboardButtonData("Keep my data", "settings:menu"),
				),
			))

	case "reset_confirm":
		b.sessions.Cancel(chatID)
		if err := b.db.DeleteUser(ctx, user.TelegramID); err != nil {
			b.reportError(chatID, "reset", err)
			return
		}
		b.reloadSchedule(ctx)
		b.sendWithMarkup(chatID, "All your data is deleted. /start begins fresh.", mainKeyboard())

	case "menu":
		b.sendSettingsMenu(ctx, chatID, user)
	}
}

// applySetting writes one settings change, refreshes the reminder schedule
// when relevant, and confirms with the updated menu.
func (b *Bot) applySetting(ctx context.Context, chatID int64, user models.UserRow, upd storage.UserUpdate, confirmation string) {
	updated, err := b.db.ApplyUserUpdate(ctx, user.TelegramID, upd)
	if err != nil {
		b.reportError(chatID, "settings", err)
		return
	}
	b.setAwait(chatID, awaitNothing)
	if upd.TZ != nil || upd.ReminderEnabled != nil || upd.ReminderWeekday != nil || upd.ReminderWeekend != nil {
		b.reloadSchedule(ctx)
	}
	b.send(chatID, confirmation)
	b.sendSettingsMenu(ctx, chatID, updated)
}

func (b *Bot) applyReminderTime(ctx context.Context, chatID int64, user models.UserRow, text string, weekday bool) {
	hhmm := strings.TrimSpace(text)
	if !validHHMM(hhmm) {
		b.send(chatID, "That is not a valid time. Use HH:MM, for example 09:30.")
		return
	}
	upd := storage.UserUpdate{}
	which := "Weekend"
	if weekday {
		upd.ReminderWeekday = &hhmm
		which = "Weekday"
	} else {
		upd.ReminderWeekend = &hhmm
	}
	b.applySetting(ctx, chatID, user, upd, which+" reminder set to "+hhmm+".")
}

func (b *Bot) reloadSchedule(ctx context.Context) {
	if b.reload == nil {
		return
	}
	if err := b.reload.Reload(ctx); err != nil {
		b.log.Error("reloading reminder schedule", "error", err)
	}
}

func validHHMM(hhmm string) bool {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return false
	}
	var hour, minute int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hour, &minute); err != nil {
		return false
	}
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

func orUnset(s *string) string {
	if s == nil || *s == "" {
		return "unset"
	}
	return *s
}
