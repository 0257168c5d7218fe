package console

import "io"

const helpText = `
=====  MirrorBooking Commands  =====

add <name> <time> <service> [date]
 Add a new appointment
 time: specific time (e.g., 10am, 2:30pm) or 'next' for the next available slot
 service: 'hair' (30min), 'beard' (15min), 'full' (45min), or a number of minutes
 date: optional, defaults to today (format: YYYY-MM-DD)
 Examples:
   add Henry 10am hair
   add John next beard
   add Jane 2pm full 2025-12-15

del <name> <time> [date]
 Delete an appointment. Name and time must match exactly; use display to find them.
 date: optional, limits the match to that day
 Example: del Henry 10am

reschedule <name> <oldTime> <newTime> [newDate]
 Reschedule an existing appointment
 newTime: specific time or 'next' for the next available slot
 newDate: optional, defaults to the appointment's current date
 Examples:
   reschedule Henry 10am 2pm
   reschedule John 10am next
   reschedule Jane 2pm 3pm 2025-12-15

display [view]
 Display the schedule
 view options:
   daily (default) - today's detailed schedule
   weekly - current week overview
   weekly next - following week
   weekly prev - previous week
   YYYY-MM-DD - a specific date

help
 Show this help message

exit
 Save and exit the program
`

func writeHelp(w io.Writer) {
	_, _ = io.WriteString(w, helpText)
}
