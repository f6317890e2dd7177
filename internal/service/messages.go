package service

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/formatting"
	"github.com/Freeeeeet/consult_scheduler/internal/model"
)

func bookingPayload(b *model.Booking) map[string]string {
	payload := map[string]string{
		"booking_id":   b.ID.String(),
		"booking_type": b.BookingType,
		"date":         model.DateKey(b.Date),
		"status":       string(b.Status),
	}
	if b.MeetingLink != nil {
		payload["meeting_link"] = *b.MeetingLink
	}
	return payload
}

func scheduleLine(date time.Time, slots []model.Slot) string {
	return fmt.Sprintf("%s, %s", formatting.FormatDateWithWeekday(date), formatting.FormatSlots(slots))
}

func newBookingMessage(b *model.Booking) model.Notification {
	return model.Notification{
		Recipient: model.Operator(0),
		Title:     "New booking request",
		Message: fmt.Sprintf("📥 New %s request from user %d\n📅 %s",
			b.BookingType, b.UserID, scheduleLine(b.Date, b.Slots)),
		Payload: bookingPayload(b),
	}
}

func decisionMessage(b *model.Booking) model.Notification {
	title := "Booking approved"
	text := fmt.Sprintf("✅ Your booking is approved\n📅 %s", scheduleLine(b.Date, b.Slots))
	if b.Status == model.BookingStatusRejected {
		title = "Booking rejected"
		text = fmt.Sprintf("🚫 Your booking for %s was rejected", scheduleLine(b.Date, b.Slots))
		if b.RejectionReason != nil {
			text += "\nReason: " + *b.RejectionReason
		}
	}
	return model.Notification{
		Recipient: model.UserActor(b.UserID),
		Title:     title,
		Message:   text,
		Payload:   bookingPayload(b),
	}
}

func cancelledMessage(b *model.Booking, to model.Actor) model.Notification {
	text := fmt.Sprintf("❌ Booking for %s was cancelled", scheduleLine(b.Date, b.Slots))
	if b.PaymentStatus == model.PaymentStatusRefunded {
		text += fmt.Sprintf("\n💸 %s will be refunded", formatting.FormatAmount(b.Amount))
	}
	return model.Notification{
		Recipient: to,
		Title:     "Booking cancelled",
		Message:   text,
		Payload:   bookingPayload(b),
	}
}

func reminderMessage(b *model.Booking, start time.Time) model.Notification {
	text := fmt.Sprintf("⏰ Your session starts at %s", start.Format("15:04"))
	if b.MeetingLink != nil {
		text += "\n🔗 " + *b.MeetingLink
	}
	return model.Notification{
		Recipient: model.UserActor(b.UserID),
		Title:     "Session reminder",
		Message:   text,
		Payload:   bookingPayload(b),
	}
}

func proposalMessage(req *model.RescheduleRequest, b *model.Booking) model.Notification {
	return model.Notification{
		Recipient: model.Actor{Role: req.RequestedBy.Counterparty(), UserID: recipientID(req.RequestedBy.Counterparty(), b.UserID)},
		Title:     "Reschedule requested",
		Message: fmt.Sprintf("🔄 Reschedule requested\nFrom: %s\nTo: %s",
			scheduleLine(b.Date, b.Slots), scheduleLine(req.RequestedDate, req.RequestedSlots)),
		Payload: reschedulePayload(req),
	}
}

func answerMessage(req *model.RescheduleRequest) model.Notification {
	display := formatting.GetRescheduleStatusDisplay(req.Status)
	text := fmt.Sprintf("%s Reschedule to %s: %s", display.Emoji,
		scheduleLine(req.RequestedDate, req.RequestedSlots), display.Text)
	if req.Notes != nil && *req.Notes != "" {
		text += "\n" + *req.Notes
	}
	return model.Notification{
		Recipient: model.Actor{Role: req.RequestedBy, UserID: recipientID(req.RequestedBy, req.UserID)},
		Title:     "Reschedule " + string(req.Status),
		Message:   text,
		Payload:   reschedulePayload(req),
	}
}

func withdrawnMessage(req *model.RescheduleRequest) model.Notification {
	to := req.RequestedBy.Counterparty()
	return model.Notification{
		Recipient: model.Actor{Role: to, UserID: recipientID(to, req.UserID)},
		Title:     "Reschedule withdrawn",
		Message:   fmt.Sprintf("↩️ Reschedule to %s was withdrawn", scheduleLine(req.RequestedDate, req.RequestedSlots)),
		Payload:   reschedulePayload(req),
	}
}

func reschedulePayload(req *model.RescheduleRequest) map[string]string {
	return map[string]string{
		"request_id":     req.ID.String(),
		"booking_id":     req.BookingID.String(),
		"requested_date": model.DateKey(req.RequestedDate),
		"status":         string(req.Status),
	}
}

// recipientID - id клиента для пользователя и 0 для оператора.
func recipientID(role model.ActorRole, clientID int64) int64 {
	if role == model.ActorUser {
		return clientID
	}
	return 0
}
