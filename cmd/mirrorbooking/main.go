package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/uptrace/bun"

	"mirrorbooking/internal/config"
	"mirrorbooking/internal/domain"
	"mirrorbooking/internal/schedule"
	"mirrorbooking/internal/service/appointments"
	"mirrorbooking/internal/store"
	"mirrorbooking/internal/store/flatfile"
	"mirrorbooking/internal/store/sqldb"
	"mirrorbooking/internal/transport/console"
)

const serviceName = "mirrorbooking"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(2)
	}

	logOut, closeLog, err := openLogOutput(cfg.LogFile)
	if err != nil {
		log.Error("log file open failed", slog.Any("err", err), slog.String("log_file", cfg.LogFile))
		os.Exit(1)
	}
	defer closeLog()

	log = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	hours, err := businessHours(cfg)
	if err != nil {
		log.Error("invalid business hours", slog.Any("err", err))
		os.Exit(2)
	}

	log.Info(
		"starting",
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("log_level", cfg.LogLevel),
		slog.String("open", domain.FormatTime(hours.Open)),
		slog.String("close", domain.FormatTime(hours.Close)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store open failed", slog.Any("err", err), slog.String("store_driver", cfg.StoreDriver))
		fmt.Fprintf(os.Stderr, "Error: could not open the appointment store: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	svc := appointments.NewService(repo, appointments.WithHours(hours), appointments.WithLogger(log))

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	st, err := svc.Load(loadCtx)
	cancel()
	if err != nil {
		log.Error("appointments load failed", slog.Any("err", err))
		fmt.Fprintf(os.Stderr, "Error: could not load appointments: %v\n", err)
		os.Exit(1)
	}

	sess := console.NewSession(svc, st, os.Stdin, console.WithLogger(log))
	if err := sess.Run(ctx); err != nil {
		// Already reported to the operator; the in-memory state is lost on exit.
		log.Warn("session ended with unsaved changes", slog.Any("err", err))
	}
	log.Info("stopped")
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.AppointmentStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
		db, err := sqldb.OpenPostgres(cfg.DatabaseURL, sqldb.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
			log.Error("database connection failed", args...)
			return nil, nil, err
		}
		return prepareDB(ctx, db, log)

	case config.DriverSQLite:
		log.Info("opening sqlite database", slog.String("path", cfg.SQLitePath))
		db, err := sqldb.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return prepareDB(ctx, db, log)
	}

	return flatfile.New(cfg.StoreFile, log), func() {}, nil
}

func prepareDB(ctx context.Context, db *bun.DB, log *slog.Logger) (store.AppointmentStore, func(), error) {
	closeDB := func() {
		if err := sqldb.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}

	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := sqldb.EnsureSchema(schemaCtx, db); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return sqldb.NewAppointmentRepo(db), closeDB, nil
}

func businessHours(cfg config.Config) (schedule.Hours, error) {
	open, err := domain.ParseTime(cfg.OpenTime)
	if err != nil {
		return schedule.Hours{}, fmt.Errorf("business.open: %w", err)
	}
	closing, err := domain.ParseTime(cfg.CloseTime)
	if err != nil {
		return schedule.Hours{}, fmt.Errorf("business.close: %w", err)
	}
	override, err := domain.ParseTime(cfg.OverrideCloseTime)
	if err != nil {
		return schedule.Hours{}, fmt.Errorf("business.override_close: %w", err)
	}

	hours := schedule.Hours{Open: open, Close: closing, OverrideClose: override, Step: cfg.SlotStep}
	if err := hours.Validate(); err != nil {
		return schedule.Hours{}, err
	}
	return hours, nil
}

func openLogOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
