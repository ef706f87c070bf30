package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"trainerbook/internal/models"
)

// CalendarFeed renders confirmed sessions as an iCalendar document that a
// trainer can subscribe to. Times are expressed in the given location.
func CalendarFeed(trainerID int64, bookings []*models.Booking, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//trainerbook//sessions//EN")

	for _, booking := range bookings {
		if booking.Status != models.StatusConfirmed {
			continue
		}

		uid := fmt.Sprintf("booking-%d@trainerbook", booking.ID)
		event := cal.AddEvent(uid)
		event.SetDtStampTime(time.Now().UTC())

		day := booking.Date
		start := time.Date(day.Year(), day.Month(), day.Day(), int(booking.StartMinute)/60, int(booking.StartMinute)%60, 0, 0, loc)
		end := time.Date(day.Year(), day.Month(), day.Day(), int(booking.EndMinute)/60, int(booking.EndMinute)%60, 0, 0, loc)

		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(fmt.Sprintf("Session with %s", booking.ClientName))
		if booking.Note != "" {
			event.SetDescription(booking.Note)
		}
	}

	return cal.Serialize()
}
