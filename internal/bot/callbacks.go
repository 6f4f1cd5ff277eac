package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/meltforce/liftbot/internal/metrics"
	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/session"
)

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	b.answerCallback(query.ID)
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	user, err := b.db.GetOrCreateUser(ctx, query.From.ID)
	if err != nil {
		b.log.Error("resolving user", "telegram_id", query.From.ID, "error", err)
		b.send(chatID, "Something went wrong, please try again later.")
		return
	}

	parts := strings.Split(query.Data, ":")
	switch parts[0] {
	case "workout":
		b.handleWorkoutCallback(ctx, chatID, user, parts)
	case "history":
		b.handleHistoryCallback(ctx, chatID, user, parts, query.Message.MessageID)
	case "export":
		b.handleExportCallback(ctx, chatID, user, parts)
	case "settings":
		b.handleSettingsCallback(ctx, chatID, user, parts)
	}
}

func (b *Bot) handleWorkoutCallback(ctx context.Context, chatID int64, user models.UserRow, parts []string) {
	if len(parts) < 2 {
		return
	}
	action := parts[1]

	var exerciseID int64
	if len(parts) >= 3 {
		exerciseID, _ = strconv.ParseInt(parts[2], 10, 64)
	}

	switch action {
	case "set":
		setIndex, err := b.sessions.BeginSet(ctx, chatID, exerciseID)
		if err != nil {
			b.reportError(chatID, "begin_set", err)
			return
		}
		b.send(chatID, fmt.Sprintf("Set %d. Weight (%s):", setIndex, user.Units))

	case "finish_ex", "skip":
		advance := b.sessions.FinishExercise
		if action == "skip" {
			advance = b.sessions.SkipExercise
		}
		res, err := advance(ctx, chatID, exerciseID)
		if err != nil {
			b.reportError(chatID, "advance", err)
			return
		}
		b.sendAdvance(chatID, user, res)

	case "back":
		res, err := b.sessions.GoBack(ctx, chatID)
		if err != nil {
			b.reportError(chatID, "back", err)
			return
		}
		b.sendAdvance(chatID, user, res)

	case "complete":
		summary, err := b.sessions.Complete(ctx, chatID)
		if err != nil {
			b.reportError(chatID, "complete", err)
			return
		}
		metrics.WorkoutsCompleted.Inc()
		b.sendWithMarkup(chatID, renderSummary(summary, user), mainKeyboard())
	}
}

func (b *Bot) sendAdvance(chatID int64, user models.UserRow, res *session.Advance) {
	if res.AllDone {
		b.sendWithMarkup(chatID, "All exercises done. Finish the workout?", completeKeyboard())
		return
	}
	b.sendWithMarkup(chatID, renderCard(res.Card, user), exerciseKeyboard(res.Card.ExerciseID, b.sessions.HasPrev(chatID)))
}

func (b *Bot) handleHistoryCallback(ctx context.Context, chatID int64, user models.UserRow, parts []string, messageID int) {
	if len(parts) < 3 {
		return
	}
	switch parts[1] {
	case "page":
		page, err := strconv.Atoi(parts[2])
		if err != nil || page < 1 {
			return
		}
		b.sendHistoryPage(ctx, chatID, user, page, messageID)

	case "detail":
		workoutID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return
		}
		detail, err := b.db.WorkoutDetail(ctx, workoutID)
		if err != nil {
			b.reportError(chatID, "history_detail", err)
			return
		}
		b.send(chatID, renderSummary(detail, user))
	}
}
