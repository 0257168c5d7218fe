package domain

import "errors"

var (
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrInvalidService    = errors.New("invalid service")
	ErrInvalidDate       = errors.New("invalid date")
)

// ValidationError reports a field that failed appointment validation and
// does not map to one of the sentinel errors above.
type ValidationError struct {
	Field string
	msg   string
}

func (e *ValidationError) Error() string {
	return e.msg
}
