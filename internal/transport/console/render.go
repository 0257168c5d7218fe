package console

import (
	"fmt"
	"io"
	"strings"

	"mirrorbooking/internal/domain"
	"mirrorbooking/internal/schedule"
)

func renderDaily(w io.Writer, day schedule.DayView, today string) {
	label := "Schedule for:"
	if day.Date == today {
		label = "Schedule for today:"
	}
	fmt.Fprintf(w, "\n======= %s (%s) %s =======\n\n", label, day.Weekday, domain.FormatDisplayDate(day.Date))

	for _, seg := range day.Segments {
		switch seg.Kind {
		case schedule.SegmentAvailable:
			span := domain.FormatTime(seg.Start) + "-" + domain.FormatTime(seg.End)
			fmt.Fprintf(w, "%-11s | [available]\n", span)
		case schedule.SegmentBooked, schedule.SegmentOutsideHours:
			tag := "[BOOKED]"
			if seg.Kind == schedule.SegmentOutsideHours {
				tag = "[OUTSIDE-HOURS]"
			}
			a := seg.Appointment
			fmt.Fprintf(w, "%-11s | %s %s - %s (%d min)\n", a.Clock(), tag, a.Name, a.Service, a.Duration)
		}
	}

	fmt.Fprintf(w, "\n%d appointment(s) scheduled.\n", len(day.Appointments))
}

func renderWeekly(w io.Writer, week schedule.WeekView) {
	fmt.Fprintf(w, "\n===== Weekly Schedule (%s to %s) =====\n\n", week.Start, week.End)

	for _, day := range week.Days {
		fmt.Fprintf(w, "%-12s (%s):  ", day.Weekday, day.Date)
		if len(day.Appointments) == 0 {
			fmt.Fprintln(w, "[No appointments]")
			continue
		}
		entries := make([]string, 0, len(day.Appointments))
		for _, a := range day.Appointments {
			entries = append(entries, a.Clock()+"-"+a.Name)
		}
		fmt.Fprintf(w, "%s (%d total)\n", strings.Join(entries, " |"), len(day.Appointments))
	}

	fmt.Fprintln(w, "\nNavigation: 'display weekly next' or 'display weekly prev'")
}

func describe(a domain.Appointment) string {
	return fmt.Sprintf("%s at %s on %s (%s, %d min)", a.Name, a.Clock(), a.Date, a.Service, a.Duration)
}
