package controller

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// CommandFunc обрабатывает команду и возвращает ответ. Пустой ответ не отправляется.
type CommandFunc func(ctx context.Context, msg *models.Message) string

type BotController struct {
	bot      *bot.Bot
	handlers *Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, handlers *Handlers, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все команды в боте.
func (c *BotController) RegisterHandlers() {
	commands := map[string]CommandFunc{
		"/start":      c.handlers.HandleStart,
		"/help":       c.handlers.HandleHelp,
		"/slots":      c.handlers.HandleSlots,
		"/book":       c.handlers.HandleBook,
		"/mybookings": c.handlers.HandleMyBookings,
		"/cancel":     c.handlers.HandleCancel,
		"/approve":    c.handlers.HandleApprove,
		"/reject":     c.handlers.HandleReject,
		"/reschedule": c.handlers.HandleReschedule,
		"/accept":     c.handlers.HandleAccept,
		"/decline":    c.handlers.HandleDecline,
		"/withdraw":   c.handlers.HandleWithdraw,
	}

	for pattern, fn := range commands {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, pattern, bot.MatchTypePrefix, c.wrap(fn))
	}

	c.logger.Info("Bot handlers registered", zap.Int("commands", len(commands)))
}

// Start получает обновления, пока ctx не завершён.
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot polling")
	c.bot.Start(ctx)
}

func (c *BotController) wrap(fn CommandFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		text := fn(ctx, update.Message)
		if text == "" {
			return
		}

		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   text,
		}); err != nil {
			c.logger.Error("Failed to send reply",
				zap.Int64("chat_id", update.Message.Chat.ID),
				zap.Error(err))
		}
	}
}
