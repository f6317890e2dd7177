package formatting

import "github.com/Freeeeeet/consult_scheduler/internal/model"

type StatusDisplay struct {
	Emoji string
	Text  string
}

func (d StatusDisplay) String() string {
	return d.Emoji + " " + d.Text
}

func GetBookingStatusDisplay(status model.BookingStatus) StatusDisplay {
	displays := map[model.BookingStatus]StatusDisplay{
		model.BookingStatusPending:   {"⏳", "Awaiting approval"},
		model.BookingStatusApproved:  {"👍", "Approved"},
		model.BookingStatusConfirmed: {"✅", "Confirmed"},
		model.BookingStatusUpcoming:  {"📅", "Upcoming"},
		model.BookingStatusCompleted: {"✔️", "Completed"},
		model.BookingStatusCancelled: {"❌", "Cancelled"},
		model.BookingStatusRejected:  {"🚫", "Rejected"},
	}

	if display, ok := displays[status]; ok {
		return display
	}
	return StatusDisplay{"❓", "Unknown"}
}

func GetRescheduleStatusDisplay(status model.RescheduleStatus) StatusDisplay {
	displays := map[model.RescheduleStatus]StatusDisplay{
		model.RescheduleStatusPending:   {"⏳", "Awaiting answer"},
		model.RescheduleStatusApproved:  {"✅", "Accepted"},
		model.RescheduleStatusRejected:  {"🚫", "Declined"},
		model.RescheduleStatusWithdrawn: {"↩️", "Withdrawn"},
	}

	if display, ok := displays[status]; ok {
		return display
	}
	return StatusDisplay{"❓", "Unknown"}
}
