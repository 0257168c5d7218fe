package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"mirrorbooking/internal/domain"
	"mirrorbooking/internal/service/appointments"
	"mirrorbooking/internal/store"
)

const prompt = "$"

type appointmentsService interface {
	Add(ctx context.Context, st appointments.State, in appointments.AddInput) (appointments.State, appointments.AddResult, error)
	Delete(ctx context.Context, st appointments.State, in appointments.DeleteInput) (appointments.State, domain.Appointment, error)
	Reschedule(ctx context.Context, st appointments.State, in appointments.RescheduleInput) (appointments.State, appointments.RescheduleResult, error)
	Display(ctx context.Context, st appointments.State, in appointments.DisplayInput) (appointments.State, appointments.DisplayResult, error)
	Flush(ctx context.Context, st appointments.State) error
}

// Session is the interactive command loop. It owns the appointment state
// between commands and is not safe for concurrent use.
type Session struct {
	svc    appointmentsService
	state  appointments.State
	in     *bufio.Scanner
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
	log    *slog.Logger

	lines <-chan string
}

type Option func(*Session)

func WithOutput(out, errOut io.Writer) Option {
	return func(s *Session) {
		if out != nil {
			s.out = out
		}
		if errOut != nil {
			s.errOut = errOut
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

func NewSession(svc appointmentsService, st appointments.State, in io.Reader, opts ...Option) *Session {
	s := &Session{
		svc:    svc,
		state:  st,
		in:     bufio.NewScanner(in),
		out:    os.Stdout,
		errOut: os.Stderr,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "console"))
	return s
}

func (s *Session) State() appointments.State {
	return s.state
}

// Run reads commands until exit, end of input or ctx cancellation, and
// flushes the collection on the way out. Command errors are reported to
// the operator and never end the loop.
func (s *Session) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	s.lines = s.scan(stop)

	for {
		fmt.Fprint(s.out, prompt)
		line, err := s.readLine(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Info("session interrupted", slog.Any("err", err))
			}
			fmt.Fprintln(s.out)
			return s.exit(context.WithoutCancel(ctx))
		}

		if done := s.execute(ctx, line); done {
			return s.exit(ctx)
		}
	}
}

func (s *Session) scan(stop <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for s.in.Scan() {
			select {
			case lines <- s.in.Text():
			case <-stop:
				return
			}
		}
		if err := s.in.Err(); err != nil {
			s.log.Warn("input read failed", slog.Any("err", err))
		}
	}()
	return lines
}

func (s *Session) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

// execute runs one input line and reports whether the operator asked to
// exit.
func (s *Session) execute(ctx context.Context, line string) bool {
	cmd, err := ParseLine(line)
	if err != nil {
		s.report(cmd.Verb, err)
		return false
	}

	switch cmd.Verb {
	case "":
		return false
	case VerbExit:
		return true
	case VerbHelp:
		writeHelp(s.out)
	case VerbAdd:
		s.add(ctx, cmd)
	case VerbDel:
		s.del(ctx, cmd)
	case VerbReschedule:
		s.reschedule(ctx, cmd)
	case VerbDisplay:
		s.display(ctx, cmd)
	}
	return false
}

func (s *Session) exit(ctx context.Context) error {
	err := s.svc.Flush(ctx, s.state)
	if err != nil {
		s.report(VerbExit, err)
	}
	fmt.Fprintln(s.out, "Exiting program.")
	return err
}

func (s *Session) add(ctx context.Context, cmd Command) {
	st, res, err := s.svc.Add(ctx, s.state, appointments.AddInput{
		Name:     cmd.Arg(0),
		Time:     cmd.Arg(1),
		Service:  cmd.Arg(2),
		Date:     cmd.Arg(3),
		OnNoSlot: s.noSlotPrompt("Cancel"),
	})
	s.state = st
	if err != nil && !errors.Is(err, store.ErrPersist) {
		if errors.Is(err, appointments.ErrCancelled) {
			fmt.Fprintln(s.out, "Booking cancelled.")
			return
		}
		s.report(VerbAdd, err)
		return
	}

	if res.Override {
		fmt.Fprintln(s.out, "[Admin Override] Booking after hours.")
	}
	fmt.Fprintf(s.out, "Added appointment: %s\n", describe(res.Appointment))
	if err != nil {
		s.report(VerbAdd, err)
	}
}

func (s *Session) del(ctx context.Context, cmd Command) {
	st, removed, err := s.svc.Delete(ctx, s.state, appointments.DeleteInput{
		Name: cmd.Arg(0),
		Time: cmd.Arg(1),
		Date: cmd.Arg(2),
	})
	s.state = st
	if err != nil && !errors.Is(err, store.ErrPersist) {
		s.report(VerbDel, err)
		return
	}

	fmt.Fprintf(s.out, "Deleted appointment: %s\n", describe(removed))
	if err != nil {
		s.report(VerbDel, err)
	}
}

func (s *Session) reschedule(ctx context.Context, cmd Command) {
	st, res, err := s.svc.Reschedule(ctx, s.state, appointments.RescheduleInput{
		Name:     cmd.Arg(0),
		OldTime:  cmd.Arg(1),
		NewTime:  cmd.Arg(2),
		NewDate:  cmd.Arg(3),
		OnNoSlot: s.noSlotPrompt("Cancel reschedule"),
	})
	s.state = st
	if err != nil && !errors.Is(err, store.ErrPersist) {
		if errors.Is(err, appointments.ErrCancelled) {
			fmt.Fprintln(s.out, "Reschedule cancelled.")
			return
		}
		s.report(VerbReschedule, err)
		return
	}

	if res.Override {
		fmt.Fprintln(s.out, "[Admin Override] Booking after hours.")
	}
	fmt.Fprintf(
		s.out,
		"Rescheduled appointment: %s from %s (%s) to %s (%s)\n",
		res.Original.Name,
		res.Original.Clock(),
		res.Original.Date,
		res.Rescheduled.Clock(),
		res.Rescheduled.Date,
	)
	if err != nil {
		s.report(VerbReschedule, err)
	}
}

func (s *Session) display(ctx context.Context, cmd Command) {
	st, res, err := s.svc.Display(ctx, s.state, appointments.DisplayInput{
		View: cmd.Arg(0),
		Nav:  cmd.Arg(1),
	})
	s.state = st
	if err != nil {
		s.report(VerbDisplay, err)
		return
	}

	switch {
	case res.Daily != nil:
		renderDaily(s.out, *res.Daily, domain.Today(s.now()))
	case res.Weekly != nil:
		renderWeekly(s.out, *res.Weekly)
	}
}

// noSlotPrompt asks the operator how to proceed when date has no free
// slot. End of input while waiting counts as cancel.
func (s *Session) noSlotPrompt(cancelLabel string) appointments.NoSlotResolver {
	return appointments.ResolverFunc(func(ctx context.Context, date string, duration int) (appointments.Resolution, error) {
		nextDay, err := domain.NextDay(date)
		if err != nil {
			return appointments.ResolveCancel, err
		}

		when := date
		if date == domain.Today(s.now()) {
			when = "today"
		}
		fmt.Fprintf(s.out, "No available slots for %s. Options:\n", when)
		fmt.Fprintf(s.out, "  1. Book for next day (%s)\n", nextDay)
		fmt.Fprintln(s.out, "  2. Admin override (book after hours)")
		fmt.Fprintf(s.out, "  3. %s\n", cancelLabel)
		fmt.Fprint(s.out, "Choose (1/2/3): ")

		choice, err := s.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return appointments.ResolveCancel, nil
			}
			return appointments.ResolveCancel, err
		}

		resolution := parseChoice(choice)
		s.log.Debug("no slot choice", slog.String("date", date), slog.Int("duration", duration), slog.String("choice", resolution.String()))
		return resolution, nil
	})
}

func parseChoice(choice string) appointments.Resolution {
	switch strings.TrimSpace(choice) {
	case "1":
		return appointments.ResolveNextDay
	case "2":
		return appointments.ResolveOverride
	default:
		return appointments.ResolveCancel
	}
}

// report maps a command error to the operator message.
func (s *Session) report(verb Verb, err error) {
	log := s.log.With(slog.String("command", string(verb)))

	var (
		usageErr   *UsageError
		overlapErr *appointments.OverlapError
		vErr       *domain.ValidationError
	)
	switch {
	case errors.Is(err, ErrUnknownCommand):
		log.Debug("unknown command", slog.Any("err", err))
		s.errorf("Unknown command. Type 'help' for the list of commands.")
	case errors.As(err, &usageErr):
		log.Debug("invalid usage", slog.Any("err", err))
		s.errorf("Invalid format. Use: %s", usageErr.Usage)
		for _, hint := range usageErr.Hints {
			fmt.Fprintf(s.errOut, "  %s\n", hint)
		}
	case errors.As(err, &overlapErr):
		subject := "Appointment"
		if verb == VerbReschedule {
			subject = "New time"
		}
		s.errorf("%s overlaps with existing appointment for %s at %s", subject, overlapErr.Existing.Name, overlapErr.Existing.Clock())
	case errors.Is(err, domain.ErrInvalidService):
		s.errorf("Invalid service. Use 'hair', 'beard', 'full', or a number of minutes.")
	case errors.Is(err, domain.ErrInvalidTimeFormat):
		s.errorf("Invalid time format. Use a time such as 10am or 2:30pm.")
	case errors.Is(err, domain.ErrInvalidDate):
		s.errorf("Invalid date. Use YYYY-MM-DD.")
	case errors.Is(err, appointments.ErrInvalidView):
		s.errorf("Invalid display option. Use 'daily', 'weekly [next|prev]', or a date (YYYY-MM-DD)")
	case errors.Is(err, appointments.ErrNoSlotAvailable):
		s.errorf("%s", sentence(err.Error()))
	case errors.Is(err, store.ErrNotFound):
		s.errorf("%s", sentence(err.Error()))
	case errors.As(err, &vErr):
		s.errorf("%s", sentence(vErr.Error()))
	case errors.Is(err, store.ErrPersist):
		log.Error("appointments not saved", slog.Any("err", err))
		s.errorf("Could not save appointments (%v). Changes are kept in memory until the next save.", err)
	default:
		log.Error("command failed", slog.Any("err", err))
		s.errorf("%s", sentence(err.Error()))
	}
}

func (s *Session) errorf(format string, args ...any) {
	fmt.Fprintf(s.errOut, "Error: "+format+"\n", args...)
}

func sentence(msg string) string {
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
