package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loc = time.FixedZone("MSK", 3*60*60)

func TestSlot(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		assert.NoError(t, Slot{StartTime: "09:00", EndTime: "09:45"}.Validate())
		assert.Error(t, Slot{StartTime: "9:00", EndTime: "09:45"}.Validate())
		assert.Error(t, Slot{StartTime: "09:00", EndTime: "25:00"}.Validate())
		assert.Error(t, Slot{StartTime: "10:00", EndTime: "10:00"}.Validate())
		assert.Error(t, Slot{StartTime: "11:00", EndTime: "10:00"}.Validate())
	})

	t.Run("minutes", func(t *testing.T) {
		assert.Equal(t, 45, Slot{StartTime: "09:00", EndTime: "09:45"}.Minutes())
		assert.Equal(t, 0, Slot{StartTime: "x", EndTime: "09:45"}.Minutes())
	})

	t.Run("sort and bounds", func(t *testing.T) {
		slots := []Slot{
			{StartTime: "14:00", EndTime: "14:30"},
			{StartTime: "09:00", EndTime: "09:30"},
			{StartTime: "09:00", EndTime: "09:15"},
		}
		SortSlots(slots)
		assert.Equal(t, "09:00-09:15", slots[0].Key())
		assert.Equal(t, "14:00-14:30", slots[2].Key())

		start, ok := EarliestStart(slots)
		assert.True(t, ok)
		assert.Equal(t, "09:00", start)
		end, ok := LatestEnd(slots)
		assert.True(t, ok)
		assert.Equal(t, "14:30", end)

		_, ok = EarliestStart(nil)
		assert.False(t, ok)
	})
}

func TestDates(t *testing.T) {
	d, err := ParseDate("2026-03-04", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, d.Weekday())
	assert.Equal(t, "2026-03-04", DateKey(d))

	_, err = ParseDate("04.03.2026", loc)
	assert.Error(t, err)

	// Дата, прочитанная из базы в UTC, сохраняет календарный день.
	stored := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	got := At(stored, "10:30", loc)
	assert.True(t, time.Date(2026, 3, 4, 10, 30, 0, 0, loc).Equal(got))
}

func TestBooking_StartEnd(t *testing.T) {
	b := &Booking{
		Date: time.Date(2026, 3, 4, 0, 0, 0, 0, loc),
		Slots: []Slot{
			{StartTime: "11:00", EndTime: "11:30"},
			{StartTime: "10:00", EndTime: "10:30"},
		},
	}
	assert.True(t, time.Date(2026, 3, 4, 10, 0, 0, 0, loc).Equal(b.StartAt(loc)))
	assert.True(t, time.Date(2026, 3, 4, 11, 30, 0, 0, loc).Equal(b.EndAt(loc)))

	ref := "pi_1"
	assert.False(t, b.IsOneOffCharge())
	b.PaymentReference = &ref
	b.Amount = 100
	assert.True(t, b.IsOneOffCharge())
}

func TestDeriveStatusOnScheduleChange(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.Equal(t, BookingStatusUpcoming, DeriveStatusOnScheduleChange(BookingStatusApproved, future, now))
	assert.Equal(t, BookingStatusUpcoming, DeriveStatusOnScheduleChange(BookingStatusConfirmed, future, now))
	assert.Equal(t, BookingStatusApproved, DeriveStatusOnScheduleChange(BookingStatusApproved, past, now))
	assert.Equal(t, BookingStatusApproved, DeriveStatusOnScheduleChange(BookingStatusApproved, now, now))
	assert.Equal(t, BookingStatusPending, DeriveStatusOnScheduleChange(BookingStatusPending, future, now))
	assert.Equal(t, BookingStatusCancelled, DeriveStatusOnScheduleChange(BookingStatusCancelled, future, now))
	assert.Equal(t, BookingStatusCompleted, DeriveStatusOnScheduleChange(BookingStatusCompleted, future, now))
}

func TestAvailability_EnabledSlots(t *testing.T) {
	var missing *DayAvailability
	assert.Empty(t, missing.EnabledSlots())

	day := &DayAvailability{
		Enabled: true,
		Windows: []TemplateWindow{
			{StartTime: "09:00", EndTime: "09:30", Enabled: true},
			{StartTime: "10:00", EndTime: "10:30", Enabled: false},
		},
	}
	assert.Equal(t, []Slot{{StartTime: "09:00", EndTime: "09:30"}}, day.EnabledSlots())

	day.Enabled = false
	assert.Empty(t, day.EnabledSlots())
}

func TestActorAndTypes(t *testing.T) {
	assert.Equal(t, ActorOperator, ActorUser.Counterparty())
	assert.Equal(t, ActorUser, ActorOperator.Counterparty())
	assert.False(t, ActorRole("admin").Valid())

	types := DefaultBookingTypes()
	assert.Equal(t, []string{"video_consult"}, types.LiveMeetingCodes())
	_, ok := types.Lookup("unknown")
	assert.False(t, ok)

	assert.True(t, (&Plan{}).Unlimited())
	sub := &Subscription{Status: SubscriptionStatusActive, CurrentPeriodEnd: time.Now().Add(time.Hour)}
	assert.True(t, sub.IsActiveAt(time.Now()))
	sub.Status = "past_due"
	assert.False(t, sub.IsActiveAt(time.Now()))
}
