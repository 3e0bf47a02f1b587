package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"storebot/internal/config"
	"storebot/internal/logger"
	"storebot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
)

// Bot runs the storefront over Telegram long polling. Customers browse the
// catalog and file requests; operators settle them from the review chats via
// inline buttons.
type Bot struct {
	api    *tgbotapi.BotAPI
	engine *service.Engine
	states *StateStore
	cfg    *config.Config
	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

func New(cfg *config.Config, engine *service.Engine, rdb *redis.Client) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "bot")
	log.Info("bot authorized", "username", api.Self.UserName)

	return &Bot{
		api:    api,
		engine: engine,
		states: NewStateStore(rdb),
		cfg:    cfg,
		stopCh: make(chan struct{}),
		log:    log,
	}, nil
}

// Start runs the update loop until Stop is called. Each update is handled in
// its own goroutine; per-user serialization happens at the database row lock,
// not here.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			switch {
			case update.CallbackQuery != nil:
				b.wg.Add(1)
				go func(cb *tgbotapi.CallbackQuery) {
					defer b.wg.Done()
					b.handleCallback(cb)
				}(update.CallbackQuery)
			case update.Message != nil:
				b.wg.Add(1)
				go func(msg *tgbotapi.Message) {
					defer b.wg.Done()
					b.handleMessage(msg)
				}(update.Message)
			}
		}
	}
}

// Stop gracefully stops the bot.
func (b *Bot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !b.gate(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}

	refToken := ""
	if msg.IsCommand() && msg.Command() == "start" {
		refToken = strings.TrimSpace(msg.CommandArguments())
	}
	user, created, err := b.engine.GetOrCreateUser(ctx, msg.From.ID, msg.From.UserName, refToken)
	if err != nil {
		b.log.Error("get or create user failed", "tg_id", msg.From.ID, "error", err)
		b.sendText(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}
	if user.Banned {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			_ = b.states.Clear(ctx, msg.From.ID)
			b.sendWelcome(msg.Chat.ID, created)
		case "cancel":
			_ = b.states.Clear(ctx, msg.From.ID)
			b.sendText(msg.Chat.ID, "Cancelled.")
			b.sendMainMenu(msg.Chat.ID)
		case "help":
			b.sendWelcome(msg.Chat.ID, false)
		default:
			b.sendText(msg.Chat.ID, "Unknown command. Use the menu below.")
			b.sendMainMenu(msg.Chat.ID)
		}
		return
	}

	b.handleDialogInput(ctx, user, msg)
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Operator decision buttons live in the review chats and are not gated on
	// maintenance mode.
	if kind, action, id, ok := ParseModToken(cb.Data); ok {
		b.handleModeration(ctx, cb, kind, action, id)
		return
	}

	if !b.gate(ctx, cb.From.ID, cb.Message.Chat.ID) {
		b.answerCallback(cb.ID, "")
		return
	}
	user, _, err := b.engine.GetOrCreateUser(ctx, cb.From.ID, cb.From.UserName, "")
	if err != nil || user.Banned {
		b.answerCallback(cb.ID, "")
		return
	}

	b.handleStorefrontCallback(ctx, user, cb)
}

// gate refuses non-operator traffic while the shop is stopped.
func (b *Bot) gate(ctx context.Context, tgID, chatID int64) bool {
	if b.cfg.IsAdmin(tgID) {
		return true
	}
	running, err := b.engine.Settings().BotRunning(ctx)
	if err != nil {
		b.log.Error("read bot status failed", "error", err)
		return true
	}
	if !running {
		b.sendText(chatID, b.engine.Settings().MaintenanceMessage(ctx))
		return false
	}
	return true
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Error("answer callback failed", "error", err)
	}
}
