package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	MinutesPerDay = 24 * 60
)

// ParseTime converts a 12-hour clock token such as "10am" or "2:30pm" into
// minutes since midnight. A token without a meridiem is read as "am".
func ParseTime(s string) (int, error) {
	raw := strings.TrimSpace(s)
	lower := strings.ToLower(raw)

	isPM := strings.Contains(lower, "pm")
	if isPM || strings.Contains(lower, "am") {
		raw = strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == ':' {
				return r
			}
			return -1
		}, raw)
	}

	hourPart, minutePart, hasMinutes := strings.Cut(raw, ":")
	hours, err := strconv.Atoi(hourPart)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	minutes := 0
	if hasMinutes {
		minutes, err = strconv.Atoi(minutePart)
		if err != nil || minutes < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
	}

	if isPM && hours != 12 {
		hours += 12
	}
	if !isPM && hours == 12 {
		hours = 0
	}

	return hours*60 + minutes, nil
}

// FormatTime renders minutes since midnight in 12-hour form, dropping the
// minutes component when it is zero (600 -> "10am", 615 -> "10:15am").
func FormatTime(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60

	period := "am"
	if hours >= 12 {
		period = "pm"
	}
	if hours > 12 {
		hours -= 12
	}
	if hours == 0 {
		hours = 12
	}

	if mins > 0 {
		return fmt.Sprintf("%d:%02d%s", hours, mins, period)
	}
	return fmt.Sprintf("%d%s", hours, period)
}

// ParseDuration maps a service label to its length in minutes. Unknown
// labels are read as a plain number of minutes.
func ParseDuration(service string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(service)) {
	case "hair", "haircut":
		return 30, nil
	case "beard":
		return 15, nil
	case "full", "both":
		return 45, nil
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(service))
	if err != nil || minutes <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidService, service)
	}
	return minutes, nil
}

// CeilToStep rounds minutes up to the next multiple of step.
func CeilToStep(minutes, step int) int {
	if step <= 0 {
		return minutes
	}
	return ((minutes + step - 1) / step) * step
}

// FloorToStep rounds minutes down to a multiple of step.
func FloorToStep(minutes, step int) int {
	if step <= 0 {
		return minutes
	}
	return (minutes / step) * step
}

// MinuteOfDay returns the wall-clock minutes since midnight of t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func Today(now time.Time) string {
	return now.Format(DateLayout)
}

func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

func NextDay(date string) (string, error) {
	return AddDays(date, 1)
}

func DayOfWeek(date string) (time.Weekday, error) {
	t, err := ParseDate(date)
	if err != nil {
		return time.Sunday, err
	}
	return t.Weekday(), nil
}

// WeekStart returns the Monday on or before now.
func WeekStart(now time.Time) string {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	return now.AddDate(0, 0, -daysSinceMonday).Format(DateLayout)
}

// FormatDisplayDate renders a YYYY-MM-DD date as MM-DD-YY. Unparseable
// input is returned as-is.
func FormatDisplayDate(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("01-02-06")
}
