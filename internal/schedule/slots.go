package schedule

import (
	"fmt"
	"time"

	"mirrorbooking/internal/domain"
)

// Hours is the business window in minutes since midnight. OverrideClose
// replaces Close when an after-hours booking is authorised.
type Hours struct {
	Open          int
	Close         int
	OverrideClose int
	Step          int
}

func DefaultHours() Hours {
	return Hours{
		Open:          10 * 60,
		Close:         18 * 60,
		OverrideClose: 22 * 60,
		Step:          15,
	}
}

func (h Hours) Validate() error {
	if h.Step <= 0 {
		return fmt.Errorf("slot step must be positive, got %d", h.Step)
	}
	if h.Open < 0 || h.Close > domain.MinutesPerDay || h.OverrideClose > domain.MinutesPerDay {
		return fmt.Errorf("business hours must fall within a single day")
	}
	if h.Close <= h.Open {
		return fmt.Errorf("closing time %s must be after opening time %s", domain.FormatTime(h.Close), domain.FormatTime(h.Open))
	}
	if h.OverrideClose < h.Close {
		return fmt.Errorf("override closing time %s must not be before closing time %s", domain.FormatTime(h.OverrideClose), domain.FormatTime(h.Close))
	}
	return nil
}

func (h Hours) end(override bool) int {
	if override {
		return h.OverrideClose
	}
	return h.Close
}

// Floor is the earliest start the finder will offer on date. For today it
// is the current time rounded up to the step grid, never before opening.
func (h Hours) Floor(date string, now time.Time) int {
	floor := h.Open
	if date == domain.Today(now) {
		if current := domain.CeilToStep(domain.MinuteOfDay(now), h.Step); current > floor {
			floor = current
		}
	}
	return floor
}

// FindNextSlot returns the earliest start on date at which an appointment
// of the given duration fits without overlapping any existing appointment
// on that date. ok is false when the window is exhausted.
func FindNextSlot(existing []domain.Appointment, date string, duration int, override bool, hours Hours, now time.Time) (start int, ok bool) {
	if duration <= 0 || hours.Step <= 0 {
		return 0, false
	}

	sameDay := make([]domain.Appointment, 0, len(existing))
	for _, a := range existing {
		if a.Date == date {
			sameDay = append(sameDay, a)
		}
	}

	end := hours.end(override)
	for candidate := hours.Floor(date, now); candidate+duration <= end; candidate += hours.Step {
		free := true
		for _, a := range sameDay {
			if domain.OverlapsRange(a, date, candidate, duration) {
				free = false
				break
			}
		}
		if free {
			return candidate, true
		}
	}
	return 0, false
}
