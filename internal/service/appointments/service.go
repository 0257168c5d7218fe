package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mirrorbooking/internal/domain"
	"mirrorbooking/internal/schedule"
	"mirrorbooking/internal/store"
)

const nextSlotToken = "next"

// State is the session owned by the caller: the appointment collection and
// the anchor of the weekly view. Handlers take a State and return the one
// to keep; on rejection that is the input unchanged.
type State struct {
	Appointments []domain.Appointment
	WeekAnchor   string
}

func (st State) withAppointments(appts []domain.Appointment) State {
	return State{Appointments: appts, WeekAnchor: st.WeekAnchor}
}

// without returns a copy of the collection minus index i.
func (st State) without(i int) []domain.Appointment {
	out := make([]domain.Appointment, 0, len(st.Appointments))
	out = append(out, st.Appointments[:i]...)
	return append(out, st.Appointments[i+1:]...)
}

type Resolution int

const (
	ResolveCancel Resolution = iota
	ResolveNextDay
	ResolveOverride
)

func (r Resolution) String() string {
	switch r {
	case ResolveNextDay:
		return "next_day"
	case ResolveOverride:
		return "override"
	default:
		return "cancel"
	}
}

// NoSlotResolver decides what to do when no slot is free on date.
type NoSlotResolver interface {
	ResolveNoSlot(ctx context.Context, date string, duration int) (Resolution, error)
}

type ResolverFunc func(ctx context.Context, date string, duration int) (Resolution, error)

func (f ResolverFunc) ResolveNoSlot(ctx context.Context, date string, duration int) (Resolution, error) {
	return f(ctx, date, duration)
}

type Service struct {
	repo  store.AppointmentStore
	hours schedule.Hours
	now   func() time.Time
	log   *slog.Logger
}

type Option func(*Service)

func WithHours(h schedule.Hours) Option {
	return func(s *Service) { s.hours = h }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(repo store.AppointmentStore, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		hours: schedule.DefaultHours(),
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "service.appointments"))
	return s
}

func (s *Service) Hours() schedule.Hours {
	return s.hours
}

// Load reads the stored collection into a fresh session.
func (s *Service) Load(ctx context.Context) (State, error) {
	appts, err := s.repo.Load(ctx)
	if err != nil {
		return State{}, err
	}
	s.log.Info("appointments loaded", slog.Int("count", len(appts)))
	return State{Appointments: appts}, nil
}

// Flush writes the whole collection.
func (s *Service) Flush(ctx context.Context, st State) error {
	return s.save(ctx, st)
}

type AddInput struct {
	Name    string
	Time    string
	Service string
	Date    string

	OnNoSlot NoSlotResolver
}

type AddResult struct {
	Appointment domain.Appointment
	Override    bool
}

func (s *Service) Add(ctx context.Context, st State, in AddInput) (State, AddResult, error) {
	duration, err := domain.ParseDuration(in.Service)
	if err != nil {
		return st, AddResult{}, err
	}

	today := domain.Today(s.now())
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = today
	}
	if _, err := domain.ParseDate(date); err != nil {
		return st, AddResult{}, err
	}

	var (
		start    int
		override bool
	)
	if strings.EqualFold(strings.TrimSpace(in.Time), nextSlotToken) {
		// The choice is only offered when today is full.
		date, start, override, err = s.resolveSlot(ctx, st.Appointments, date, duration, date == today, in.OnNoSlot)
		if err != nil {
			s.log.Info("appointment add unresolved", slog.String("name", in.Name), slog.String("date", date), slog.Any("err", err))
			return st, AddResult{}, err
		}
	} else {
		start, err = domain.ParseTime(in.Time)
		if err != nil {
			return st, AddResult{}, err
		}
	}

	appt, err := domain.NewAppointment(domain.NewAppointmentInput{
		Name:    in.Name,
		Start:   start,
		Date:    date,
		Service: in.Service,
	})
	if err != nil {
		return st, AddResult{}, err
	}

	if existing, ok := findConflict(st.Appointments, appt); ok {
		s.log.Info(
			"appointment add conflict",
			slog.String("name", appt.Name),
			slog.String("date", appt.Date),
			slog.String("time", appt.Clock()),
			slog.String("conflict_name", existing.Name),
		)
		return st, AddResult{}, &OverlapError{Existing: existing}
	}

	appts := make([]domain.Appointment, 0, len(st.Appointments)+1)
	appts = append(appts, st.Appointments...)
	next := st.withAppointments(append(appts, appt))

	result := AddResult{Appointment: appt, Override: override}
	s.log.Info(
		"appointment added",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("name", appt.Name),
		slog.String("date", appt.Date),
		slog.String("time", appt.Clock()),
		slog.Int("duration", appt.Duration),
		slog.Bool("override", override),
	)
	return next, result, s.save(ctx, next)
}

type DeleteInput struct {
	Name string
	Time string
	// Date narrows the match; empty matches any date.
	Date string
}

// Delete removes the first appointment, in collection order, matching
// name and time (and date when given).
func (s *Service) Delete(ctx context.Context, st State, in DeleteInput) (State, domain.Appointment, error) {
	start, err := domain.ParseTime(in.Time)
	if err != nil {
		return st, domain.Appointment{}, err
	}
	date := strings.TrimSpace(in.Date)
	if date != "" {
		if _, err := domain.ParseDate(date); err != nil {
			return st, domain.Appointment{}, err
		}
	}

	idx := indexOf(st.Appointments, in.Name, start, date)
	if idx < 0 {
		s.log.Info("appointment not found", slog.String("name", in.Name), slog.String("time", in.Time))
		return st, domain.Appointment{}, &NotFoundError{Name: strings.TrimSpace(in.Name), Start: start}
	}

	removed := st.Appointments[idx]
	next := st.withAppointments(st.without(idx))

	s.log.Info(
		"appointment deleted",
		slog.String("appointment_id", removed.ID.String()),
		slog.String("name", removed.Name),
		slog.String("date", removed.Date),
		slog.String("time", removed.Clock()),
	)
	return next, removed, s.save(ctx, next)
}

type RescheduleInput struct {
	Name    string
	OldTime string
	NewTime string
	NewDate string

	OnNoSlot NoSlotResolver
}

type RescheduleResult struct {
	Original    domain.Appointment
	Rescheduled domain.Appointment
	Override    bool
}

// Reschedule moves the first (name, old time) appointment, keeping its ID.
// The appointment never conflicts with its own old slot, and it stays
// where it was unless the move commits.
func (s *Service) Reschedule(ctx context.Context, st State, in RescheduleInput) (State, RescheduleResult, error) {
	oldStart, err := domain.ParseTime(in.OldTime)
	if err != nil {
		return st, RescheduleResult{}, err
	}

	idx := indexOf(st.Appointments, in.Name, oldStart, "")
	if idx < 0 {
		s.log.Info("appointment not found", slog.String("name", in.Name), slog.String("time", in.OldTime))
		return st, RescheduleResult{}, &NotFoundError{Name: strings.TrimSpace(in.Name), Start: oldStart}
	}
	original := st.Appointments[idx]
	remainder := st.without(idx)

	date := strings.TrimSpace(in.NewDate)
	if date == "" {
		date = original.Date
	}
	if _, err := domain.ParseDate(date); err != nil {
		return st, RescheduleResult{}, err
	}

	var (
		start    int
		override bool
	)
	if strings.EqualFold(strings.TrimSpace(in.NewTime), nextSlotToken) {
		date, start, override, err = s.resolveSlot(ctx, remainder, date, original.Duration, true, in.OnNoSlot)
		if err != nil {
			s.log.Info("appointment reschedule unresolved", slog.String("name", original.Name), slog.String("date", date), slog.Any("err", err))
			return st, RescheduleResult{}, err
		}
	} else {
		start, err = domain.ParseTime(in.NewTime)
		if err != nil {
			return st, RescheduleResult{}, err
		}
	}

	moved := original
	moved.Date = date
	moved.Start = start
	if err := moved.Validate(); err != nil {
		return st, RescheduleResult{}, err
	}

	if existing, ok := findConflict(remainder, moved); ok {
		s.log.Info(
			"appointment reschedule conflict",
			slog.String("appointment_id", original.ID.String()),
			slog.String("date", moved.Date),
			slog.String("time", moved.Clock()),
			slog.String("conflict_name", existing.Name),
		)
		return st, RescheduleResult{}, &OverlapError{Existing: existing}
	}

	next := st.withAppointments(append(remainder, moved))
	result := RescheduleResult{Original: original, Rescheduled: moved, Override: override}

	s.log.Info(
		"appointment rescheduled",
		slog.String("appointment_id", moved.ID.String()),
		slog.String("name", moved.Name),
		slog.String("from", original.Date+" "+original.Clock()),
		slog.String("to", moved.Date+" "+moved.Clock()),
		slog.Bool("override", override),
	)
	return next, result, s.save(ctx, next)
}

type DisplayInput struct {
	// View is "", "daily", "weekly", "week" or a YYYY-MM-DD date.
	View string
	// Nav applies to the weekly view: "", "next", "prev" or "previous".
	Nav string
}

// DisplayResult carries exactly one of the two views.
type DisplayResult struct {
	Daily  *schedule.DayView
	Weekly *schedule.WeekView
}

func (s *Service) Display(ctx context.Context, st State, in DisplayInput) (State, DisplayResult, error) {
	now := s.now()
	view := strings.ToLower(strings.TrimSpace(in.View))

	switch {
	case view == "" || view == "daily":
		return s.daily(st, domain.Today(now))

	case view == "weekly" || view == "week":
		anchor, err := schedule.NavigateWeek(st.WeekAnchor, in.Nav, now)
		if err != nil {
			return st, DisplayResult{}, fmt.Errorf("%w: navigation %q", ErrInvalidView, in.Nav)
		}
		week, err := schedule.Weekly(st.Appointments, anchor)
		if err != nil {
			return st, DisplayResult{}, err
		}
		next := State{Appointments: st.Appointments, WeekAnchor: anchor}
		s.log.Debug("weekly view", slog.String("week_start", anchor), slog.String("nav", in.Nav))
		return next, DisplayResult{Weekly: &week}, nil

	case strings.Contains(view, "-"):
		return s.daily(st, view)
	}

	return st, DisplayResult{}, fmt.Errorf("%w: %q", ErrInvalidView, in.View)
}

func (s *Service) daily(st State, date string) (State, DisplayResult, error) {
	day, err := schedule.Daily(st.Appointments, date, s.hours)
	if err != nil {
		return st, DisplayResult{}, err
	}
	s.log.Debug("daily view", slog.String("date", date), slog.Int("count", len(day.Appointments)))
	return st, DisplayResult{Daily: &day}, nil
}

// resolveSlot finds the next slot on date, asking resolver what to do when
// the day is full and offerChoice is set.
func (s *Service) resolveSlot(ctx context.Context, existing []domain.Appointment, date string, duration int, offerChoice bool, resolver NoSlotResolver) (string, int, bool, error) {
	now := s.now()
	if start, ok := schedule.FindNextSlot(existing, date, duration, false, s.hours, now); ok {
		return date, start, false, nil
	}
	if !offerChoice {
		return date, 0, false, fmt.Errorf("%w for %s", ErrNoSlotAvailable, date)
	}

	choice := ResolveCancel
	if resolver != nil {
		var err error
		choice, err = resolver.ResolveNoSlot(ctx, date, duration)
		if err != nil {
			return date, 0, false, err
		}
	}
	s.log.Debug("no slot resolution", slog.String("date", date), slog.Int("duration", duration), slog.String("choice", choice.String()))

	switch choice {
	case ResolveNextDay:
		nextDay, err := domain.NextDay(date)
		if err != nil {
			return date, 0, false, err
		}
		start, ok := schedule.FindNextSlot(existing, nextDay, duration, false, s.hours, now)
		if !ok {
			return nextDay, 0, false, fmt.Errorf("%w for %s", ErrNoSlotAvailable, nextDay)
		}
		return nextDay, start, false, nil

	case ResolveOverride:
		start, ok := schedule.FindNextSlot(existing, date, duration, true, s.hours, now)
		if !ok {
			return date, 0, false, fmt.Errorf("%w for %s even with override", ErrNoSlotAvailable, date)
		}
		return date, start, true, nil
	}

	return date, 0, false, ErrCancelled
}

func (s *Service) save(ctx context.Context, st State) error {
	if err := s.repo.Save(ctx, st.Appointments); err != nil {
		s.log.Error("appointments save failed", slog.Any("err", err), slog.Int("count", len(st.Appointments)))
		if !errors.Is(err, store.ErrPersist) {
			err = fmt.Errorf("%w: %w", store.ErrPersist, err)
		}
		return err
	}
	return nil
}

func indexOf(appts []domain.Appointment, name string, start int, date string) int {
	name = strings.TrimSpace(name)
	for i, a := range appts {
		if a.Name != name || a.Start != start {
			continue
		}
		if date != "" && a.Date != date {
			continue
		}
		return i
	}
	return -1
}

func findConflict(appts []domain.Appointment, candidate domain.Appointment) (domain.Appointment, bool) {
	for _, a := range appts {
		if domain.Overlaps(candidate, a) {
			return a, true
		}
	}
	return domain.Appointment{}, false
}
