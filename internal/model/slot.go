package model

import (
	"fmt"
	"sort"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Slot - окно по настенным часам из недельного шаблона доступности.
type Slot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Key идентифицирует слот внутри дня. Слоты совпадают только при точном
// совпадении обеих строк.
func (s Slot) Key() string {
	return s.StartTime + "-" + s.EndTime
}

// Validate проверяет формат HH:MM обоих концов и что окно не пустое.
func (s Slot) Validate() error {
	start, err := ClockMinutes(s.StartTime)
	if err != nil {
		return err
	}
	end, err := ClockMinutes(s.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("slot %s ends before it starts", s.Key())
	}
	return nil
}

// Minutes возвращает длительность слота. У невалидного слота она нулевая.
func (s Slot) Minutes() int {
	start, err := ClockMinutes(s.StartTime)
	if err != nil {
		return 0
	}
	end, err := ClockMinutes(s.EndTime)
	if err != nil || end < start {
		return 0
	}
	return end - start
}

// ClockMinutes переводит строку HH:MM в минуты от полуночи.
func ClockMinutes(value string) (int, error) {
	if len(value) != len(ClockLayout) {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	t, err := time.Parse(ClockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseDate разбирает календарную дату YYYY-MM-DD в loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// DateKey форматирует календарную часть t.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// CalendarDate возвращает полночь собственных года/месяца/дня t в loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// At возвращает момент, когда на часах в loc наступает clockValue в день date.
// Невалидное время даёт полночь.
func At(date time.Time, clockValue string, loc *time.Location) time.Time {
	minutes, _ := ClockMinutes(clockValue)
	return CalendarDate(date, loc).Add(time.Duration(minutes) * time.Minute)
}

// SortSlots сортирует слоты по началу, затем по концу.
func SortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].StartTime == slots[j].StartTime {
			return slots[i].EndTime < slots[j].EndTime
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

// EarliestStart возвращает самое раннее начало среди слотов.
func EarliestStart(slots []Slot) (string, bool) {
	if len(slots) == 0 {
		return "", false
	}
	earliest := slots[0].StartTime
	for _, s := range slots[1:] {
		if s.StartTime < earliest {
			earliest = s.StartTime
		}
	}
	return earliest, true
}

// LatestEnd возвращает самый поздний конец среди слотов.
func LatestEnd(slots []Slot) (string, bool) {
	if len(slots) == 0 {
		return "", false
	}
	latest := slots[0].EndTime
	for _, s := range slots[1:] {
		if s.EndTime > latest {
			latest = s.EndTime
		}
	}
	return latest, true
}
