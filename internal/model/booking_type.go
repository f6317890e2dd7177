package model

// BookingType описывает возможности типа брони.
type BookingType struct {
	Code                string `json:"code"`
	RequiresLiveMeeting bool   `json:"requires_live_meeting"`
	MinSlotMinutes      int    `json:"min_slot_minutes"`
}

type BookingTypes map[string]BookingType

// DefaultBookingTypes - каталог типов по умолчанию.
func DefaultBookingTypes() BookingTypes {
	return BookingTypes{
		"video_consult": {Code: "video_consult", RequiresLiveMeeting: true, MinSlotMinutes: 30},
		"phone_consult": {Code: "phone_consult", RequiresLiveMeeting: false, MinSlotMinutes: 15},
		"in_person":     {Code: "in_person", RequiresLiveMeeting: false, MinSlotMinutes: 30},
	}
}

func (t BookingTypes) Lookup(code string) (BookingType, bool) {
	bt, ok := t[code]
	return bt, ok
}

// LiveMeetingCodes возвращает коды типов, которым нужна ссылка на встречу.
func (t BookingTypes) LiveMeetingCodes() []string {
	codes := make([]string, 0, len(t))
	for code, bt := range t {
		if bt.RequiresLiveMeeting {
			codes = append(codes, code)
		}
	}
	return codes
}
