package flatfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"mirrorbooking/internal/domain"
	"mirrorbooking/internal/store"
)

const fieldSeparator = "|"

// Store keeps appointments in a text file, one name|time|date|service|duration
// record per line. Save truncates and rewrites the file in place.
type Store struct {
	path string
	log  *slog.Logger
}

func New(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		path: path,
		log:  log.With(slog.String("component", "store.flatfile"), slog.String("path", path)),
	}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the file. A missing or unreadable file yields an empty
// collection; malformed records are skipped.
func (s *Store) Load(ctx context.Context) ([]domain.Appointment, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("appointments file not found; starting empty")
		} else {
			s.log.Warn("appointments file unreadable; starting empty", slog.Any("err", err))
		}
		return nil, nil
	}
	defer f.Close()

	return s.decode(ctx, f)
}

func (s *Store) decode(ctx context.Context, r io.Reader) ([]domain.Appointment, error) {
	var out []domain.Appointment
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		a, err := parseRecord(line)
		if err != nil {
			s.log.Warn("skipping malformed record", slog.Int("line", lineNo), slog.Any("err", err))
			continue
		}
		out = append(out, a)
	}
	if err := scanner.Err(); err != nil {
		s.log.Warn("appointments file read stopped early", slog.Int("line", lineNo), slog.Any("err", err))
	}
	return out, nil
}

func parseRecord(line string) (domain.Appointment, error) {
	fields := strings.SplitN(line, fieldSeparator, 5)
	if len(fields) != 5 {
		return domain.Appointment{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}

	start, err := domain.ParseTime(fields[1])
	if err != nil {
		return domain.Appointment{}, err
	}
	duration, err := strconv.Atoi(strings.TrimSpace(fields[4]))
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("duration %q: %w", fields[4], err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Appointment{}, err
	}

	a := domain.Appointment{
		ID:       id,
		Name:     fields[0],
		Start:    start,
		Date:     fields[2],
		Service:  fields[3],
		Duration: duration,
	}
	if err := a.Validate(); err != nil {
		return domain.Appointment{}, err
	}
	return a, nil
}

func formatRecord(a domain.Appointment) string {
	return strings.Join([]string{
		a.Name,
		domain.FormatTime(a.Start),
		a.Date,
		a.Service,
		strconv.Itoa(a.Duration),
	}, fieldSeparator)
}

// Save overwrites the file with appts in collection order.
func (s *Store) Save(ctx context.Context, appts []domain.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrPersist, err)
	}

	w := bufio.NewWriter(f)
	for _, a := range appts {
		if _, err := w.WriteString(formatRecord(a) + "\n"); err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: %w", store.ErrPersist, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", store.ErrPersist, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrPersist, err)
	}

	s.log.Debug("appointments saved", slog.Int("count", len(appts)))
	return nil
}
