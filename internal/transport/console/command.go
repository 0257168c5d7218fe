package console

import (
	"errors"
	"fmt"
	"strings"
)

type Verb string

const (
	VerbAdd        Verb = "add"
	VerbDel        Verb = "del"
	VerbReschedule Verb = "reschedule"
	VerbDisplay    Verb = "display"
	VerbHelp       Verb = "help"
	VerbExit       Verb = "exit"
)

var ErrUnknownCommand = errors.New("unknown command")

// UsageError reports a known command with too few arguments.
type UsageError struct {
	Verb  Verb
	Usage string
	Hints []string
}

func (e *UsageError) Error() string {
	return "invalid format. Use: " + e.Usage
}

type Command struct {
	Verb Verb
	Args []string
}

// Arg returns the i-th argument or "" when absent.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

type commandDef struct {
	minArgs int
	usage   string
	hints   []string
}

var commands = map[Verb]commandDef{
	VerbAdd: {
		minArgs: 3,
		usage:   "add <name> <time> <service> [date]",
		hints: []string{
			"time: time (ex: 10am) or 'next' for next available",
			"service: hair/beard/full or minutes (ex: 30)",
			"date: optional (YYYY-MM-DD), defaults to today",
		},
	},
	VerbDel: {
		minArgs: 2,
		usage:   "del <name> <time> [date]",
		hints: []string{
			"Use the display command to find the exact name and time",
		},
	},
	VerbReschedule: {
		minArgs: 3,
		usage:   "reschedule <name> <oldTime> <newTime> [newDate]",
		hints: []string{
			"Examples: reschedule Henry 10am 2pm (the 10am appointment moves to 2pm)",
			"          reschedule John 10am next (the 10am appointment moves to the next available slot)",
		},
	},
	VerbDisplay: {usage: "display [daily|weekly [next|prev]|YYYY-MM-DD]"},
	VerbHelp:    {usage: "help"},
	VerbExit:    {usage: "exit"},
}

// ParseLine splits an input line into a verb and whitespace-separated
// arguments. A blank line yields the zero Command and no error. Arguments
// past the ones a command reads are ignored.
func ParseLine(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, nil
	}

	verb := Verb(strings.ToLower(fields[0]))
	def, ok := commands[verb]
	if !ok {
		return Command{}, fmt.Errorf("%w %q", ErrUnknownCommand, fields[0])
	}

	args := fields[1:]
	if len(args) < def.minArgs {
		return Command{}, &UsageError{Verb: verb, Usage: def.usage, Hints: def.hints}
	}
	return Command{Verb: verb, Args: args}, nil
}
