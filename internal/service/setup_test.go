package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/clock"
	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	videoType = "video_consult"
	phoneType = "phone_consult"

	clientID      int64 = 42
	otherClientID int64 = 43
	operatorID    int64 = 1
)

var providerLoc = time.FixedZone("MSK", 3*60*60)

var (
	slot10 = model.Slot{StartTime: "10:00", EndTime: "10:30"}
	slot11 = model.Slot{StartTime: "11:00", EndTime: "11:30"}
	slot12 = model.Slot{StartTime: "12:00", EndTime: "12:30"}
	slot15 = model.Slot{StartTime: "15:00", EndTime: "15:30"}
)

// Понедельник, 2 марта 2026, 09:00 по времени провайдера.
var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, providerLoc)

const (
	today    = "2026-03-02" // понедельник
	tomorrow = "2026-03-03"
	in2Days  = "2026-03-04"
	in3Days  = "2026-03-05"
	sunday   = "2026-03-08"
)

type testEnv struct {
	clock     *clock.Fixed
	bookings  *fakeBookingStore
	requests  *fakeRescheduleStore
	templates *fakeTemplateStore
	subs      *fakeSubscriptionStore
	reviews   *fakeReviewStore
	notifier  *recordingNotifier
	meetings  *mockMeetings
	refunds   *mockRefunder
	locker    SlotLocker

	availability *AvailabilityService
	quota        *QuotaService
	booking      *BookingService
	reschedule   *RescheduleService
	reconcile    *ReconciliationService
}

func openDay(bookingType string, weekday time.Weekday) *model.DayAvailability {
	return &model.DayAvailability{
		BookingType: bookingType,
		Weekday:     weekday,
		Enabled:     true,
		Windows: []model.TemplateWindow{
			{StartTime: "10:00", EndTime: "10:30", Enabled: true},
			{StartTime: "11:00", EndTime: "11:30", Enabled: true},
			{StartTime: "12:00", EndTime: "12:30", Enabled: true},
			{StartTime: "15:00", EndTime: "15:30", Enabled: true},
			{StartTime: "18:00", EndTime: "18:30", Enabled: false},
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		clock:     clock.NewFixed(testNow),
		bookings:  newFakeBookingStore(),
		requests:  newFakeRescheduleStore(),
		templates: &fakeTemplateStore{days: make(map[string]*model.DayAvailability)},
		subs: &fakeSubscriptionStore{
			sub: &model.Subscription{
				ID:                 7,
				PlanID:             3,
				Status:             model.SubscriptionStatusActive,
				CurrentPeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, providerLoc),
				CurrentPeriodEnd:   time.Date(2026, 3, 31, 23, 59, 59, 0, providerLoc),
			},
			plan: &model.Plan{ID: 3, Name: "Standard", SessionAllowance: 3},
		},
		reviews:  &fakeReviewStore{reviews: make(map[uuid.UUID]*model.Review)},
		notifier: &recordingNotifier{},
		meetings: &mockMeetings{},
		refunds:  &mockRefunder{},
		locker:   &mutexLocker{},
	}
	e.meetings.CreateFn = func(_ context.Context, id uuid.UUID, _ time.Time, _ int) (string, error) {
		return fmt.Sprintf("https://meet.example.com/consult-%s", id), nil
	}
	e.refunds.RefundFn = func(context.Context, string, int64) error { return nil }

	for wd := time.Monday; wd <= time.Saturday; wd++ {
		e.templates.set(openDay(videoType, wd))
		e.templates.set(openDay(phoneType, wd))
	}
	e.templates.set(&model.DayAvailability{BookingType: videoType, Weekday: time.Sunday, Enabled: false})

	e.wire()
	return e
}

func (e *testEnv) wire() {
	logger := zap.NewNop()
	types := model.DefaultBookingTypes()

	e.availability = NewAvailabilityService(e.templates, e.bookings, e.clock, logger)
	e.quota = NewQuotaService(e.bookings, e.subs, e.clock, logger)
	e.booking = NewBookingService(e.bookings, e.reviews, e.locker, e.availability, e.quota,
		e.meetings, e.refunds, e.notifier, types, e.clock, logger)
	e.reschedule = NewRescheduleService(e.bookings, e.requests, e.locker, e.availability,
		e.meetings, e.notifier, types, e.clock, 24*time.Hour, logger)
	e.reconcile = NewReconciliationService(e.bookings, e.notifier, types, e.clock, time.Hour, logger)
}

func (e *testEnv) create(t *testing.T, bookingType, date string, slots ...model.Slot) *model.Booking {
	t.Helper()
	b, err := e.booking.Create(context.Background(), CreateBookingParams{
		UserID:      clientID,
		BookingType: bookingType,
		Date:        date,
		Slots:       slots,
	})
	require.NoError(t, err)
	return b
}

// approved создаёт бронь и одобряет её.
func (e *testEnv) approved(t *testing.T, bookingType, date string, slots ...model.Slot) *model.Booking {
	t.Helper()
	b := e.create(t, bookingType, date, slots...)
	b, err := e.booking.ApproveOrReject(context.Background(), b.ID, model.Operator(operatorID), model.DecisionApprove, "")
	require.NoError(t, err)
	return b
}

func (e *testEnv) resolve(t *testing.T, bookingType, date string) []model.Slot {
	t.Helper()
	free, err := e.availability.ResolveString(context.Background(), bookingType, date)
	require.NoError(t, err)
	return free
}

func keys(slots []model.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Key()
	}
	return out
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := model.ParseDate(value, providerLoc)
	require.NoError(t, err)
	return d
}
