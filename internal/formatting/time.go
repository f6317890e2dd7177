package formatting

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
)

func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatDateWithWeekday форматирует дату как "Mon 02.01.2006".
func FormatDateWithWeekday(t time.Time) string {
	return t.Format("Mon 02.01.2006")
}

func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatSlots склеивает слоты от раннего к позднему: "10:00-10:30, 11:00-11:30".
func FormatSlots(slots []model.Slot) string {
	sorted := make([]model.Slot, len(slots))
	copy(sorted, slots)
	model.SortSlots(sorted)

	parts := make([]string, len(sorted))
	for i, s := range sorted {
		parts[i] = s.Key()
	}
	return strings.Join(parts, ", ")
}

// FormatDuration форматирует минуты: "45 min", "1 h", "1 h 30 min".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}

// FormatAmount форматирует минимальные единицы с двумя знаками.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
