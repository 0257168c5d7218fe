package sqldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"mirrorbooking/internal/domain"
	"mirrorbooking/internal/store"
)

const collectionLockKey = "mirrorbooking:appointments"

// pgUndefinedTable is the SQLSTATE for a missing relation.
const pgUndefinedTable = "42P01"

type appointmentRow struct {
	domain.Appointment `bun:",extend"`

	Position int `bun:"position,notnull"`
}

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) Load(ctx context.Context) ([]domain.Appointment, error) {
	var rows []appointmentRow
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
			return nil, nil
		}
		return nil, err
	}

	out := make([]domain.Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Appointment)
	}
	return out, nil
}

// Save replaces every stored row with appts inside one transaction.
func (r *AppointmentRepo) Save(ctx context.Context, appts []domain.Appointment) error {
	rows := make([]appointmentRow, 0, len(appts))
	for i, a := range appts {
		rows = append(rows, appointmentRow{Appointment: a, Position: i})
	}

	err := r.InCollectionTransaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*appointmentRow)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return persistError(err)
	}
	return nil
}

// InCollectionTransaction runs fn in a transaction. On PostgreSQL the
// transaction holds an advisory lock so concurrent processes never
// interleave their overwrites.
func (r *AppointmentRepo) InCollectionTransaction(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if r.db.Dialect().Name() == dialect.PG {
			if err := lockCollection(ctx, tx); err != nil {
				return err
			}
		}
		return fn(ctx, tx)
	})
}

func lockCollection(ctx context.Context, tx bun.Tx) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", collectionLockKey).Exec(ctx)
	return err
}

func persistError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s (sqlstate %s)", store.ErrPersist, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: %w", store.ErrPersist, err)
}
