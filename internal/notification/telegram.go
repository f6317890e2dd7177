package notification

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender - часть *bot.Bot, нужная для отправки.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TelegramNotifier отправляет уведомления в Telegram: клиентам в их аккаунт,
// оператору в заданный чат.
type TelegramNotifier struct {
	sender         MessageSender
	users          UserDirectory
	operatorChatID int64
	logger         *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, users UserDirectory, operatorChatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:         sender,
		users:          users,
		operatorChatID: operatorChatID,
		logger:         logger,
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, msg model.Notification) error {
	chatID, err := n.chatFor(ctx, msg.Recipient)
	if err != nil {
		return err
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   msg.Message,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	n.logger.Debug("Notification delivered",
		zap.String("role", string(msg.Recipient.Role)),
		zap.Int64("chat_id", chatID),
		zap.String("title", msg.Title),
	)
	return nil
}

func (n *TelegramNotifier) chatFor(ctx context.Context, recipient model.Actor) (int64, error) {
	if recipient.IsOperator() {
		if n.operatorChatID == 0 {
			return 0, fmt.Errorf("operator chat is not configured")
		}
		return n.operatorChatID, nil
	}

	user, err := n.users.GetByID(ctx, recipient.UserID)
	if err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}
	if user == nil || user.TelegramID == 0 {
		return 0, fmt.Errorf("user %d has no linked telegram account", recipient.UserID)
	}
	return user.TelegramID, nil
}
