package sqldb

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"mirrorbooking/internal/domain"
)

func TestPostgresIntegration_SaveLoadRoundTrip(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("MIRRORBOOKING_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("MIRRORBOOKING_TEST_DATABASE_URL not set")
	}

	admin, err := OpenPostgres(databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("OpenPostgres error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(admin)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "mirrorbooking_test_" + randomHex(t, 8)
	if _, err := admin.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
		t.Fatalf("create schema error: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	scopedURL, err := withSearchPath(databaseURL, schema)
	if err != nil {
		t.Fatalf("withSearchPath error: %v", err)
	}
	db, err := OpenPostgres(scopedURL, PoolConfig{MaxOpenConns: 2})
	if err != nil {
		t.Fatalf("OpenPostgres error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	repo := NewAppointmentRepo(db)

	// Missing table loads as empty.
	appts, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load before schema error: %v", err)
	}
	if len(appts) != 0 {
		t.Fatalf("len(appts) = %d, want 0", len(appts))
	}

	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema error: %v", err)
	}

	henry, err := domain.NewAppointment(domain.NewAppointmentInput{Name: "Henry", Start: 600, Date: "2026-01-05", Service: "hair"})
	if err != nil {
		t.Fatalf("NewAppointment error: %v", err)
	}
	john, err := domain.NewAppointment(domain.NewAppointmentInput{Name: "John", Start: 630, Date: "2026-01-05", Service: "beard"})
	if err != nil {
		t.Fatalf("NewAppointment error: %v", err)
	}

	if err := repo.Save(ctx, []domain.Appointment{john, henry}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 2 || got[0].ID != john.ID || got[1].ID != henry.ID {
		t.Fatalf("got = %+v", got)
	}
	if got[1].Duration != 30 || got[1].Start != 600 || got[1].Date != "2026-01-05" {
		t.Fatalf("henry = %+v", got[1])
	}
}

func withSearchPath(databaseURL, schema string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}
