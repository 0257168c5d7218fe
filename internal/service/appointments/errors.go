package appointments

import (
	"errors"
	"fmt"

	"mirrorbooking/internal/domain"
	"mirrorbooking/internal/store"
)

var (
	ErrNoSlotAvailable = errors.New("no available time slots")
	ErrCancelled       = errors.New("cancelled")
	ErrInvalidView     = errors.New("invalid display option")
)

// OverlapError names the appointment that blocks a booking. It matches
// store.ErrConflict with errors.Is.
type OverlapError struct {
	Existing domain.Appointment
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlaps with existing appointment for %s at %s on %s", e.Existing.Name, e.Existing.Clock(), e.Existing.Date)
}

func (e *OverlapError) Unwrap() error {
	return store.ErrConflict
}

// NotFoundError reports a (name, time) pair with no appointment. It matches
// store.ErrNotFound with errors.Is.
type NotFoundError struct {
	Name  string
	Start int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no appointment found for %s at %s", e.Name, domain.FormatTime(e.Start))
}

func (e *NotFoundError) Unwrap() error {
	return store.ErrNotFound
}
