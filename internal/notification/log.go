package notification

import (
	"context"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"go.uber.org/zap"
)

// LogNotifier только пишет уведомления в лог. Используется без токена Telegram.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg model.Notification) error {
	n.logger.Info("Notification",
		zap.String("role", string(msg.Recipient.Role)),
		zap.Int64("user_id", msg.Recipient.UserID),
		zap.String("title", msg.Title),
		zap.String("message", msg.Message),
	)
	return nil
}
