package model

import "time"

// TemplateWindow - одно окно для записи в дне шаблона.
type TemplateWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Enabled   bool   `json:"enabled"`
}

// DayAvailability - запись шаблона для типа брони и дня недели.
type DayAvailability struct {
	BookingType string           `json:"booking_type"`
	Weekday     time.Weekday     `json:"weekday"` // 0 = воскресенье, 6 = суббота
	Enabled     bool             `json:"enabled"`
	Windows     []TemplateWindow `json:"windows"`
}

// EnabledSlots возвращает включённые окна в порядке шаблона. У выключенного дня их нет.
func (d *DayAvailability) EnabledSlots() []Slot {
	if d == nil || !d.Enabled {
		return nil
	}
	slots := make([]Slot, 0, len(d.Windows))
	for _, w := range d.Windows {
		if !w.Enabled {
			continue
		}
		slots = append(slots, Slot{StartTime: w.StartTime, EndTime: w.EndTime})
	}
	return slots
}

// AvailabilityTemplate - недельное расписание типа брони.
type AvailabilityTemplate struct {
	BookingType string                            `json:"booking_type"`
	Days        map[time.Weekday]*DayAvailability `json:"days"`
}
