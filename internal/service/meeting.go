package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"go.uber.org/zap"
)

// provisionMeeting запрашивает ссылку на встречу и сохраняет её в брони.
// Ошибки только логируются.
func provisionMeeting(ctx context.Context, meetings MeetingProvider, bookings BookingStore, b *model.Booking, loc *time.Location, logger *zap.Logger) {
	if meetings == nil {
		logger.Warn("Meeting provider not configured, booking left without link",
			zap.String("booking_id", b.ID.String()),
		)
		return
	}
	if len(b.Slots) == 0 {
		return
	}

	duration := b.Slots[0].Minutes()
	link, err := meetings.CreateMeeting(ctx, b.ID, b.StartAt(loc), duration)
	if err != nil {
		logger.Error("Failed to create meeting link",
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
		return
	}

	if err := bookings.SetMeetingLink(ctx, b.ID, link); err != nil {
		logger.Error("Failed to store meeting link",
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
		return
	}
	b.MeetingLink = &link
}

// send отправляет уведомление и логирует ошибки доставки.
func send(ctx context.Context, notifier Notifier, n model.Notification, logger *zap.Logger) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, n); err != nil {
		logger.Warn("Failed to send notification",
			zap.String("role", string(n.Recipient.Role)),
			zap.Int64("user_id", n.Recipient.UserID),
			zap.String("title", n.Title),
			zap.Error(err),
		)
	}
}
