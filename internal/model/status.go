package model

import "time"

// DeriveStatusOnScheduleChange возвращает статус брони после установки или переноса
// расписания. Pending и финальные статусы не меняются, остальные становятся
// upcoming, если начало ещё впереди.
func DeriveStatusOnScheduleChange(current BookingStatus, start, now time.Time) BookingStatus {
	if current == BookingStatusPending || current.IsTerminal() {
		return current
	}
	if start.After(now) {
		return BookingStatusUpcoming
	}
	return current
}
