package schedule

import (
	"errors"
	"sort"
	"strings"
	"time"

	"mirrorbooking/internal/domain"
)

var ErrUnknownNavigation = errors.New("unknown week navigation")

type SegmentKind string

const (
	SegmentAvailable    SegmentKind = "available"
	SegmentBooked       SegmentKind = "booked"
	SegmentOutsideHours SegmentKind = "outside-hours"
)

// Segment is one row of the daily view. Appointment is set for booked and
// outside-hours segments.
type Segment struct {
	Start       int
	End         int
	Kind        SegmentKind
	Appointment *domain.Appointment
}

type DayView struct {
	Date         string
	Weekday      time.Weekday
	Start        int
	End          int
	Segments     []Segment
	Appointments []domain.Appointment
}

// Daily lays out date as contiguous segments covering [Start, End). The
// window is the business day widened to include any appointment outside
// it, rounded outward to the step grid.
func Daily(appointments []domain.Appointment, date string, hours Hours) (DayView, error) {
	weekday, err := domain.DayOfWeek(date)
	if err != nil {
		return DayView{}, err
	}

	dayAppts := onDate(appointments, date)

	displayStart, displayEnd := hours.Open, hours.Close
	for _, a := range dayAppts {
		if a.Start < displayStart {
			displayStart = a.Start
		}
		if a.End() > displayEnd {
			displayEnd = a.End()
		}
	}
	displayStart = domain.FloorToStep(displayStart, hours.Step)
	displayEnd = domain.CeilToStep(displayEnd, hours.Step)

	view := DayView{
		Date:         date,
		Weekday:      weekday,
		Start:        displayStart,
		End:          displayEnd,
		Appointments: dayAppts,
	}

	cursor := displayStart
	for i := range dayAppts {
		a := &view.Appointments[i]
		if cursor < a.Start {
			view.Segments = append(view.Segments, Segment{Start: cursor, End: a.Start, Kind: SegmentAvailable})
			cursor = a.Start
		}

		kind := SegmentBooked
		if a.Start < hours.Open || a.Start >= hours.Close {
			kind = SegmentOutsideHours
		}
		// Stored data may already overlap; clamp so rows never overlap.
		end := a.End()
		if end < cursor {
			end = cursor
		}
		view.Segments = append(view.Segments, Segment{Start: cursor, End: end, Kind: kind, Appointment: a})
		cursor = end
	}
	if cursor < displayEnd {
		view.Segments = append(view.Segments, Segment{Start: cursor, End: displayEnd, Kind: SegmentAvailable})
	}

	return view, nil
}

type WeekDay struct {
	Date         string
	Weekday      time.Weekday
	Appointments []domain.Appointment
}

type WeekView struct {
	Start string
	End   string
	Days  []WeekDay
}

// Weekly lists the appointments of the seven days starting at startDate.
func Weekly(appointments []domain.Appointment, startDate string) (WeekView, error) {
	view := WeekView{Start: startDate, Days: make([]WeekDay, 0, 7)}
	for i := 0; i < 7; i++ {
		date, err := domain.AddDays(startDate, i)
		if err != nil {
			return WeekView{}, err
		}
		weekday, err := domain.DayOfWeek(date)
		if err != nil {
			return WeekView{}, err
		}
		view.Days = append(view.Days, WeekDay{
			Date:         date,
			Weekday:      weekday,
			Appointments: onDate(appointments, date),
		})
		view.End = date
	}
	return view, nil
}

// NavigateWeek moves the week anchor. An empty nav resets to the current
// week; "next" and "prev"/"previous" move it by seven days.
func NavigateWeek(anchor, nav string, now time.Time) (string, error) {
	if strings.TrimSpace(anchor) == "" {
		anchor = domain.WeekStart(now)
	}
	switch strings.ToLower(strings.TrimSpace(nav)) {
	case "":
		return domain.WeekStart(now), nil
	case "next":
		return domain.AddDays(anchor, 7)
	case "prev", "previous":
		return domain.AddDays(anchor, -7)
	}
	return anchor, ErrUnknownNavigation
}

func onDate(appointments []domain.Appointment, date string) []domain.Appointment {
	out := make([]domain.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if a.Date == date {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}
