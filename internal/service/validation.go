package service

import (
	"strings"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
)

// parseSchedule проверяет дату и слоты брони или предложения и возвращает
// дату и слоты, отсортированные по началу.
func parseSchedule(bt model.BookingType, date string, slots []model.Slot, loc *time.Location) (time.Time, []model.Slot, error) {
	d, err := model.ParseDate(strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, nil, newError(KindInvalidInput, "%s", err.Error())
	}
	if len(slots) == 0 {
		return time.Time{}, nil, newError(KindInvalidInput, "at least one slot is required")
	}

	seen := make(map[string]struct{}, len(slots))
	ordered := make([]model.Slot, 0, len(slots))
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return time.Time{}, nil, newError(KindInvalidInput, "%s", err.Error())
		}
		if _, dup := seen[slot.Key()]; dup {
			return time.Time{}, nil, newError(KindInvalidInput, "slot %s is listed twice", slot.Key())
		}
		if bt.MinSlotMinutes > 0 && slot.Minutes() < bt.MinSlotMinutes {
			return time.Time{}, nil, newError(KindInvalidInput, "slot %s is shorter than %d minutes", slot.Key(), bt.MinSlotMinutes)
		}
		seen[slot.Key()] = struct{}{}
		ordered = append(ordered, slot)
	}
	model.SortSlots(ordered)
	return d, ordered, nil
}

func lookupType(types model.BookingTypes, code string) (model.BookingType, error) {
	bt, ok := types.Lookup(code)
	if !ok {
		return model.BookingType{}, newError(KindInvalidInput, "unknown booking type %q", code)
	}
	return bt, nil
}

func noticeError(notice time.Duration) *Error {
	return newError(KindBadRequest, "must be at least %d hours before your appointment", int(notice.Hours()))
}
