package store

import (
	"context"

	"mirrorbooking/internal/domain"
)

// AppointmentStore loads and overwrites the whole appointment collection.
// Implementations must preserve collection order and every appointment
// field on a Save/Load round trip. A store with nothing saved yet loads
// as an empty collection.
type AppointmentStore interface {
	Load(ctx context.Context) ([]domain.Appointment, error)
	Save(ctx context.Context, appts []domain.Appointment) error
}
