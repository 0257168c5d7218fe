package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull" validate:"required,excludesall=0x7C"`
	Start     int       `bun:"start_minute,notnull" validate:"min=0,max=1439"`
	Date      string    `bun:"date,notnull" validate:"required,datetime=2006-01-02"`
	Service   string    `bun:"service,notnull" validate:"required,excludesall=0x7C"`
	Duration  int       `bun:"duration,notnull" validate:"gt=0"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// End is the exclusive end of the appointment in minutes since midnight.
func (a Appointment) End() int {
	return a.Start + a.Duration
}

// Clock is the start time in 12-hour display form.
func (a Appointment) Clock() string {
	return FormatTime(a.Start)
}

// Overlaps reports whether two appointments share any time on the same
// date. Touching endpoints do not overlap.
func Overlaps(a, b Appointment) bool {
	if a.Date != b.Date {
		return false
	}
	return a.Start < b.End() && a.End() > b.Start
}

// OverlapsRange reports whether a intersects [start, start+duration) on date.
func OverlapsRange(a Appointment, date string, start, duration int) bool {
	if a.Date != date {
		return false
	}
	return start < a.End() && start+duration > a.Start
}

type NewAppointmentInput struct {
	Name    string
	Start   int
	Date    string
	Service string
}

// NewAppointment builds a validated appointment with its duration derived
// from the service label. It does not check for overlaps.
func NewAppointment(in NewAppointmentInput) (Appointment, error) {
	duration, err := ParseDuration(in.Service)
	if err != nil {
		return Appointment{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Appointment{}, err
	}

	a := Appointment{
		ID:       id,
		Name:     strings.TrimSpace(in.Name),
		Start:    in.Start,
		Date:     strings.TrimSpace(in.Date),
		Service:  strings.TrimSpace(in.Service),
		Duration: duration,
	}
	if err := a.Validate(); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

var validate = validator.New()

func (a Appointment) Validate() error {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "Start":
		return ErrInvalidTimeFormat
	case "Date":
		return ErrInvalidDate
	case "Service", "Duration":
		return ErrInvalidService
	case "Name":
		if fe.Tag() == "required" {
			return &ValidationError{Field: "name", msg: "name is required"}
		}
		return &ValidationError{Field: "name", msg: "name must not contain '|'"}
	}
	return &ValidationError{Field: strings.ToLower(fe.Field()), msg: fe.Error()}
}
