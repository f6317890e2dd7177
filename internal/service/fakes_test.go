package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/Freeeeeet/consult_scheduler/internal/repository"
	"github.com/google/uuid"
)

var errStoreDown = errors.New("connection refused")

func copyBooking(b *model.Booking) *model.Booking {
	c := *b
	c.Slots = append([]model.Slot(nil), b.Slots...)
	return &c
}

type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*model.Booking
	held     map[string]uuid.UUID

	getErr  error
	listErr error
	panicOn string
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		bookings: make(map[uuid.UUID]*model.Booking),
		held:     make(map[string]uuid.UUID),
	}
}

func heldKey(bookingType string, date time.Time, s model.Slot) string {
	return bookingType + "|" + model.DateKey(date) + "|" + s.Key()
}

func (f *fakeBookingStore) hold(id uuid.UUID, bookingType string, date time.Time, slots []model.Slot) error {
	for _, s := range slots {
		if _, taken := f.held[heldKey(bookingType, date, s)]; taken {
			return repository.ErrSlotTaken
		}
	}
	for _, s := range slots {
		f.held[heldKey(bookingType, date, s)] = id
	}
	return nil
}

func (f *fakeBookingStore) release(id uuid.UUID) {
	for k, owner := range f.held {
		if owner == id {
			delete(f.held, k)
		}
	}
}

func (f *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hold(b.ID, b.BookingType, b.Date, b.Slots); err != nil {
		return err
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	f.bookings[b.ID] = copyBooking(b)
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	return copyBooking(b), nil
}

func (f *fakeBookingStore) ListByUser(_ context.Context, userID int64) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*model.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, copyBooking(b))
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListActiveByTypeAndDate(_ context.Context, bookingType string, date time.Time) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*model.Booking
	for _, b := range f.bookings {
		if b.BookingType == bookingType && model.DateKey(b.Date) == model.DateKey(date) && b.Status != model.BookingStatusCancelled {
			out = append(out, copyBooking(b))
		}
	}
	return out, nil
}

func (f *fakeBookingStore) CountActiveByUserBetween(_ context.Context, userID int64, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return 0, f.listErr
	}
	count := 0
	for _, b := range f.bookings {
		key := model.DateKey(b.Date)
		if b.UserID == userID && b.Status != model.BookingStatusCancelled &&
			key >= model.DateKey(from) && key <= model.DateKey(to) {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookingStore) ListByStatusesBetween(_ context.Context, types []string, statuses []model.BookingStatus, from, to time.Time) ([]*model.Booking, error) {
	if f.panicOn == "list" {
		panic("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*model.Booking
	for _, b := range f.bookings {
		key := model.DateKey(b.Date)
		if !containsString(types, b.BookingType) || !containsStatus(statuses, b.Status) {
			continue
		}
		if key >= model.DateKey(from) && key <= model.DateKey(to) {
			out = append(out, copyBooking(b))
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListByStatusesUntil(ctx context.Context, types []string, statuses []model.BookingStatus, to time.Time) ([]*model.Booking, error) {
	return f.ListByStatusesBetween(ctx, types, statuses, time.Time{}, to)
}

func (f *fakeBookingStore) TransitionStatus(_ context.Context, id uuid.UUID, from []model.BookingStatus, to model.BookingStatus, rejectionReason *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || !containsStatus(from, b.Status) {
		return false, nil
	}
	b.Status = to
	if rejectionReason != nil {
		b.RejectionReason = rejectionReason
	}
	if to == model.BookingStatusCancelled {
		f.release(id)
	}
	return true, nil
}

func (f *fakeBookingStore) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status model.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	b.PaymentStatus = status
	return nil
}

func (f *fakeBookingStore) SetMeetingLink(_ context.Context, id uuid.UUID, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		b.MeetingLink = &link
	}
	return nil
}

func (f *fakeBookingStore) Reschedule(_ context.Context, id uuid.UUID, date time.Time, slots []model.Slot, from []model.BookingStatus, status model.BookingStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || !containsStatus(from, b.Status) {
		return false, nil
	}
	old := make(map[string]uuid.UUID)
	for k, owner := range f.held {
		if owner == id {
			old[k] = owner
		}
	}
	f.release(id)
	if err := f.hold(id, b.BookingType, date, slots); err != nil {
		for k, owner := range old {
			f.held[k] = owner
		}
		return false, err
	}
	b.Date = date
	b.Slots = append([]model.Slot(nil), slots...)
	b.Status = status
	b.IsRescheduled = true
	b.ReminderSentAt = nil
	return true, nil
}

func (f *fakeBookingStore) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.ReminderSentAt != nil {
		return false, nil
	}
	b.ReminderSentAt = &at
	return true, nil
}

// put сохраняет бронь напрямую, без проверки слотов.
func (f *fakeBookingStore) put(b *model.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[b.ID] = copyBooking(b)
}

func (f *fakeBookingStore) get(id uuid.UUID) *model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyBooking(f.bookings[id])
}

type fakeRescheduleStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*model.RescheduleRequest
}

func newFakeRescheduleStore() *fakeRescheduleStore {
	return &fakeRescheduleStore{requests: make(map[uuid.UUID]*model.RescheduleRequest)}
}

func (f *fakeRescheduleStore) Create(_ context.Context, r *model.RescheduleRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.requests {
		if existing.BookingID == r.BookingID && existing.IsPending() {
			return repository.ErrDuplicate
		}
	}
	c := *r
	f.requests[r.ID] = &c
	return nil
}

func (f *fakeRescheduleStore) GetByID(_ context.Context, id uuid.UUID) (*model.RescheduleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	c := *r
	return &c, nil
}

func (f *fakeRescheduleStore) GetPendingByBookingID(_ context.Context, bookingID uuid.UUID) (*model.RescheduleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.BookingID == bookingID && r.IsPending() {
			c := *r
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeRescheduleStore) ListByBookingID(_ context.Context, bookingID uuid.UUID) ([]*model.RescheduleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.RescheduleRequest
	for _, r := range f.requests {
		if r.BookingID == bookingID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeRescheduleStore) Resolve(_ context.Context, id uuid.UUID, status model.RescheduleStatus, reviewerID *int64, notes *string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || !r.IsPending() {
		return false, nil
	}
	r.Status = status
	r.ReviewerID = reviewerID
	r.ReviewedAt = &at
	if notes != nil {
		r.Notes = notes
	}
	return true, nil
}

type fakeTemplateStore struct {
	days map[string]*model.DayAvailability
	err  error
}

func (f *fakeTemplateStore) GetDay(_ context.Context, bookingType string, weekday time.Weekday) (*model.DayAvailability, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.days[bookingType+"|"+weekday.String()], nil
}

func (f *fakeTemplateStore) set(day *model.DayAvailability) {
	f.days[day.BookingType+"|"+day.Weekday.String()] = day
}

type fakeSubscriptionStore struct {
	sub  *model.Subscription
	plan *model.Plan
	err  error
}

func (f *fakeSubscriptionStore) FindActiveSubscription(_ context.Context, userID int64) (*model.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.sub == nil {
		return nil, nil
	}
	c := *f.sub
	c.UserID = userID
	return &c, nil
}

func (f *fakeSubscriptionStore) FindPlan(_ context.Context, planID int64) (*model.Plan, error) {
	if f.plan == nil || f.plan.ID != planID {
		return nil, nil
	}
	c := *f.plan
	return &c, nil
}

type fakeReviewStore struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]*model.Review
}

func (f *fakeReviewStore) Create(_ context.Context, r *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[r.BookingID]; ok {
		return repository.ErrDuplicate
	}
	r.ID = int64(len(f.reviews) + 1)
	c := *r
	f.reviews[r.BookingID] = &c
	return nil
}

func (f *fakeReviewStore) GetByBookingID(_ context.Context, bookingID uuid.UUID) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reviews[bookingID], nil
}

// mutexLocker упорядочивает все секции, как advisory-блокировка по ключу.
type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) WithSlotLock(ctx context.Context, _ string, _ time.Time, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

// hookLocker один раз вызывает before перед первой секцией.
type hookLocker struct {
	next   SlotLocker
	before func(ctx context.Context)
	once   sync.Once
}

func (l *hookLocker) WithSlotLock(ctx context.Context, bookingType string, date time.Time, fn func(ctx context.Context) error) error {
	l.once.Do(func() { l.before(ctx) })
	return l.next.WithSlotLock(ctx, bookingType, date, fn)
}

// noLocker вызывает fn без блокировки.
type noLocker struct{}

func (noLocker) WithSlotLock(ctx context.Context, _ string, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, m := range n.sent {
		out[i] = m.Title
	}
	return out
}

func (n *recordingNotifier) last() model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	n.sent = nil
	n.mu.Unlock()
}

type mockMeetings struct {
	CreateFn func(ctx context.Context, bookingID uuid.UUID, start time.Time, durationMinutes int) (string, error)
	calls    int
}

func (m *mockMeetings) CreateMeeting(ctx context.Context, bookingID uuid.UUID, start time.Time, durationMinutes int) (string, error) {
	m.calls++
	return m.CreateFn(ctx, bookingID, start, durationMinutes)
}

type mockRefunder struct {
	RefundFn func(ctx context.Context, paymentReference string, amount int64) error
	calls    int
}

func (m *mockRefunder) Refund(ctx context.Context, paymentReference string, amount int64) error {
	m.calls++
	return m.RefundFn(ctx, paymentReference, amount)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
