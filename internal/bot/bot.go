// Package bot is the Telegram transport: it receives updates, routes them to
// the session machine and storage layer, and renders replies.
//
// Updates are dispatched per chat: each chat gets its own queue and worker
// goroutine, so one user's messages are handled strictly in order while
// different users proceed in parallel.
package bot

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/meltforce/liftbot/internal/metrics"
	"github.com/meltforce/liftbot/internal/session"
	"github.com/meltforce/liftbot/internal/storage"
)

// queueSize bounds one chat's pending updates. Telegram's long-poll batches
// are small; a full queue means the worker is stuck on the database.
const queueSize = 16

// ScheduleReloader rebuilds the reminder schedule after settings edits.
type ScheduleReloader interface {
	Reload(ctx context.Context) error
}

// await marks what free-text input a chat owes us outside a workout session.
type await int

const (
	awaitNothing await = iota
	awaitTimezone
	awaitWeekdayTime
	awaitWeekendTime
	awaitBodyweight
)

// Bot wires the Telegram API to the application.
type Bot struct {
	api      *tgbotapi.BotAPI
	db       *storage.DB
	sessions *session.Manager
	reload   ScheduleReloader
	log      *slog.Logger

	mu     sync.Mutex
	queues map[int64]chan tgbotapi.Update
	awaits map[int64]await
}

// New connects to the Telegram API and returns the Bot.
func New(token string, db *storage.DB, sessions *session.Manager, reload ScheduleReloader, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info("telegram connected", "username", api.Self.UserName)
	return &Bot{
		api:      api,
		db:       db,
		sessions: sessions,
		reload:   reload,
		log:      log,
		queues:   make(map[int64]chan tgbotapi.Update),
		awaits:   make(map[int64]await),
	}, nil
}

// Run receives updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch hands the update to its chat's worker, creating one on first
// contact. Workers live for the process lifetime.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	chatID := updateChatID(update)
	if chatID == 0 {
		return
	}

	b.mu.Lock()
	queue, ok := b.queues[chatID]
	if !ok {
		queue = make(chan tgbotapi.Update, queueSize)
		b.queues[chatID] = queue
		metrics.DispatchQueueDepth.Inc()
		go b.worker(ctx, queue)
	}
	b.mu.Unlock()

	select {
	case queue <- update:
	default:
		b.log.Warn("dropping update, chat queue full", "chat_id", chatID)
	}
}

func (b *Bot) worker(ctx context.Context, queue chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-queue:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func updateChatID(update tgbotapi.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

// Notify delivers a reminder. Satisfies reminder.Notifier; chats and Telegram
// user ids coincide for private conversations.
func (b *Bot) Notify(ctx context.Context, telegramID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(telegramID, text))
	return err
}

func (b *Bot) setAwait(chatID int64, a await) {
	b.mu.Lock()
	if a == awaitNothing {
		delete(b.awaits, chatID)
	} else {
		b.awaits[chatID] = a
	}
	b.mu.Unlock()
}

func (b *Bot) pendingAwait(chatID int64) await {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaits[chatID]
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("sending message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendWithMarkup(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("sending message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answerCallback(id string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, "")); err != nil {
		b.log.Error("answering callback", "error", err)
	}
}
