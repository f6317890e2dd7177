package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/consult_scheduler/internal/formatting"
	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/Freeeeeet/consult_scheduler/internal/service"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserStore interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

type Bookings interface {
	Create(ctx context.Context, p service.CreateBookingParams) (*model.Booking, error)
	ApproveOrReject(ctx context.Context, id uuid.UUID, actor model.Actor, decision model.Decision, reason string) (*model.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Booking, error)
	ListForUser(ctx context.Context, userID int64) ([]*model.Booking, error)
}

type Reschedules interface {
	Propose(ctx context.Context, bookingID uuid.UUID, actor model.Actor, newDate string, newSlots []model.Slot) (*model.RescheduleRequest, error)
	Respond(ctx context.Context, requestID uuid.UUID, responder model.Actor, decision model.Decision, notes *string) (*model.RescheduleRequest, error)
	Withdraw(ctx context.Context, requestID uuid.UUID, actor model.Actor) (*model.RescheduleRequest, error)
}

type Availability interface {
	ResolveString(ctx context.Context, bookingType, date string) ([]model.Slot, error)
}

// Handlers превращает команды чата в вызовы сервисов. Сообщения из чата
// оператора выполняются от имени оператора.
type Handlers struct {
	users          UserStore
	bookings       Bookings
	reschedules    Reschedules
	availability   Availability
	operatorChatID int64
	logger         *zap.Logger
}

func NewHandlers(
	users UserStore,
	bookings Bookings,
	reschedules Reschedules,
	availability Availability,
	operatorChatID int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		users:          users,
		bookings:       bookings,
		reschedules:    reschedules,
		availability:   availability,
		operatorChatID: operatorChatID,
		logger:         logger,
	}
}

const (
	textRegisterFirst = "👋 Send /start first to register."
	textFailed        = "❌ Something went wrong. Please try again later."
)

// HandleStart регистрирует пользователя при первом обращении.
func (h *Handlers) HandleStart(ctx context.Context, msg *models.Message) string {
	from := msg.From

	user, err := h.users.GetByTelegramID(ctx, from.ID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", from.ID), zap.Error(err))
		return textFailed
	}

	if user == nil {
		user = &model.User{
			TelegramID:   from.ID,
			Username:     from.Username,
			FirstName:    from.FirstName,
			LastName:     from.LastName,
			LanguageCode: from.LanguageCode,
		}
		if err := h.users.Create(ctx, user); err != nil {
			h.logger.Error("Failed to register user", zap.Int64("telegram_id", from.ID), zap.Error(err))
			return textFailed
		}
		h.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.Int64("telegram_id", from.ID))
	}

	return fmt.Sprintf("👋 Hi, %s!\n\n%s", user.DisplayName(), helpText)
}

const helpText = "Commands:\n" +
	"/slots <type> <YYYY-MM-DD> - free slots\n" +
	"/book <type> <YYYY-MM-DD> <HH:MM-HH:MM>... - request a session\n" +
	"/mybookings - your bookings\n" +
	"/cancel <booking id> - cancel a booking\n" +
	"/reschedule <booking id> <YYYY-MM-DD> <HH:MM-HH:MM>... - propose a new time\n" +
	"/accept <request id>, /decline <request id> - answer a proposal\n" +
	"/withdraw <request id> - withdraw your proposal"

func (h *Handlers) HandleHelp(ctx context.Context, msg *models.Message) string {
	return "📚 " + helpText
}

func (h *Handlers) HandleSlots(ctx context.Context, msg *models.Message) string {
	args := commandArgs(msg.Text)
	if len(args) != 2 {
		return "Usage: /slots <type> <YYYY-MM-DD>"
	}

	slots, err := h.availability.ResolveString(ctx, args[0], args[1])
	if err != nil {
		return h.errorText(err)
	}
	if len(slots) == 0 {
		return fmt.Sprintf("📭 No free slots for %s on %s", args[0], args[1])
	}
	return fmt.Sprintf("🗓 Free slots for %s on %s:\n%s", args[0], args[1], formatting.FormatSlots(slots))
}

func (h *Handlers) HandleBook(ctx context.Context, msg *models.Message) string {
	user, reply := h.sender(ctx, msg)
	if user == nil {
		return reply
	}

	args := commandArgs(msg.Text)
	if len(args) < 3 {
		return "Usage: /book <type> <YYYY-MM-DD> <HH:MM-HH:MM>..."
	}
	slots, err := parseSlots(args[2:])
	if err != nil {
		return "❌ " + err.Error()
	}

	booking, err := h.bookings.Create(ctx, service.CreateBookingParams{
		UserID:      user.ID,
		BookingType: args[0],
		Date:        args[1],
		Slots:       slots,
	})
	if err != nil {
		return h.errorText(err)
	}

	return fmt.Sprintf("📨 Request sent, waiting for confirmation\n%s", bookingLine(booking))
}

func (h *Handlers) HandleMyBookings(ctx context.Context, msg *models.Message) string {
	user, reply := h.sender(ctx, msg)
	if user == nil {
		return reply
	}

	bookings, err := h.bookings.ListForUser(ctx, user.ID)
	if err != nil {
		return h.errorText(err)
	}
	if len(bookings) == 0 {
		return "📭 You have no bookings yet. Use /slots to find a time."
	}

	lines := make([]string, 0, len(bookings))
	for _, b := range bookings {
		lines = append(lines, bookingLine(b))
	}
	return "📋 Your bookings:\n\n" + strings.Join(lines, "\n\n")
}

func (h *Handlers) HandleCancel(ctx context.Context, msg *models.Message) string {
	actor, id, reply := h.actorAndID(ctx, msg, "/cancel <booking id>")
	if reply != "" {
		return reply
	}

	booking, err := h.bookings.Cancel(ctx, id, actor)
	if err != nil {
		return h.errorText(err)
	}
	return "✅ Booking cancelled\n" + bookingLine(booking)
}

func (h *Handlers) HandleApprove(ctx context.Context, msg *models.Message) string {
	return h.decide(ctx, msg, model.DecisionApprove)
}

func (h *Handlers) HandleReject(ctx context.Context, msg *models.Message) string {
	return h.decide(ctx, msg, model.DecisionReject)
}

func (h *Handlers) decide(ctx context.Context, msg *models.Message, decision model.Decision) string {
	if !h.fromOperatorChat(msg) {
		return "⛔ This command is only available to the operator."
	}

	args := commandArgs(msg.Text)
	if len(args) == 0 {
		return fmt.Sprintf("Usage: /%s <booking id> [reason]", decision)
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return "❌ Invalid booking id"
	}
	reason := strings.Join(args[1:], " ")

	booking, err := h.bookings.ApproveOrReject(ctx, id, model.Operator(msg.From.ID), decision, reason)
	if err != nil {
		return h.errorText(err)
	}
	return "✅ Done\n" + bookingLine(booking)
}

func (h *Handlers) HandleReschedule(ctx context.Context, msg *models.Message) string {
	actor, reply := h.actor(ctx, msg)
	if reply != "" {
		return reply
	}

	args := commandArgs(msg.Text)
	if len(args) < 3 {
		return "Usage: /reschedule <booking id> <YYYY-MM-DD> <HH:MM-HH:MM>..."
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return "❌ Invalid booking id"
	}
	slots, err := parseSlots(args[2:])
	if err != nil {
		return "❌ " + err.Error()
	}

	req, err := h.reschedules.Propose(ctx, id, actor, args[1], slots)
	if err != nil {
		return h.errorText(err)
	}
	return fmt.Sprintf("📨 Proposal sent (request %s)\n📅 %s, %s",
		req.ID, formatting.FormatDateWithWeekday(req.RequestedDate), formatting.FormatSlots(req.RequestedSlots))
}

func (h *Handlers) HandleAccept(ctx context.Context, msg *models.Message) string {
	return h.answer(ctx, msg, model.DecisionApprove)
}

func (h *Handlers) HandleDecline(ctx context.Context, msg *models.Message) string {
	return h.answer(ctx, msg, model.DecisionReject)
}

func (h *Handlers) answer(ctx context.Context, msg *models.Message, decision model.Decision) string {
	actor, id, reply := h.actorAndID(ctx, msg, "/accept <request id> or /decline <request id>")
	if reply != "" {
		return reply
	}

	var notes *string
	if args := commandArgs(msg.Text); len(args) > 1 {
		text := strings.Join(args[1:], " ")
		notes = &text
	}

	req, err := h.reschedules.Respond(ctx, id, actor, decision, notes)
	if err != nil {
		return h.errorText(err)
	}
	return "Proposal: " + formatting.GetRescheduleStatusDisplay(req.Status).String()
}

func (h *Handlers) HandleWithdraw(ctx context.Context, msg *models.Message) string {
	actor, id, reply := h.actorAndID(ctx, msg, "/withdraw <request id>")
	if reply != "" {
		return reply
	}

	if _, err := h.reschedules.Withdraw(ctx, id, actor); err != nil {
		return h.errorText(err)
	}
	return "↩️ Proposal withdrawn"
}

// sender возвращает зарегистрированного автора msg или ответ, если его нет.
func (h *Handlers) sender(ctx context.Context, msg *models.Message) (*model.User, string) {
	user, err := h.users.GetByTelegramID(ctx, msg.From.ID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		return nil, textFailed
	}
	if user == nil {
		return nil, textRegisterFirst
	}
	return user, ""
}

func (h *Handlers) actor(ctx context.Context, msg *models.Message) (model.Actor, string) {
	if h.fromOperatorChat(msg) {
		return model.Operator(msg.From.ID), ""
	}
	user, reply := h.sender(ctx, msg)
	if user == nil {
		return model.Actor{}, reply
	}
	return model.UserActor(user.ID), ""
}

func (h *Handlers) actorAndID(ctx context.Context, msg *models.Message, usage string) (model.Actor, uuid.UUID, string) {
	args := commandArgs(msg.Text)
	if len(args) == 0 {
		return model.Actor{}, uuid.Nil, "Usage: " + usage
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return model.Actor{}, uuid.Nil, "❌ Invalid id"
	}

	actor, reply := h.actor(ctx, msg)
	if reply != "" {
		return model.Actor{}, uuid.Nil, reply
	}
	return actor, id, ""
}

func (h *Handlers) fromOperatorChat(msg *models.Message) bool {
	return h.operatorChatID != 0 && msg.Chat.ID == h.operatorChatID
}

// errorText форматирует ошибку сервиса. У внутренних ошибок причина уже общая.
func (h *Handlers) errorText(err error) string {
	if service.KindOf(err) == service.KindInternalFailure {
		h.logger.Error("Command failed", zap.Error(err))
	}
	return "❌ " + err.Error()
}

func bookingLine(b *model.Booking) string {
	line := fmt.Sprintf("%s %s\n📅 %s, %s\n🆔 %s",
		formatting.GetBookingStatusDisplay(b.Status),
		b.BookingType,
		formatting.FormatDateWithWeekday(b.Date),
		formatting.FormatSlots(b.Slots),
		b.ID,
	)
	if b.MeetingLink != nil {
		line += "\n🔗 " + *b.MeetingLink
	}
	return line
}

// commandArgs отбрасывает саму команду и делит остаток по пробелам.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

func parseSlots(args []string) ([]model.Slot, error) {
	slots := make([]model.Slot, 0, len(args))
	for _, arg := range args {
		start, end, ok := strings.Cut(arg, "-")
		if !ok {
			return nil, fmt.Errorf("slot %q must look like HH:MM-HH:MM", arg)
		}
		slots = append(slots, model.Slot{StartTime: start, EndTime: end})
	}
	return slots, nil
}
