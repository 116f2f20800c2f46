package helper

import (
	"errors"
	"fmt"
	"strings"
)

// Error wraps an original error with the trace of operations it passed through.
type Error struct {
	Original error
	Trace    []string
}

// NewError wraps err with the given trace step.
// If err already is an Error, the step is appended to its trace.
func NewError(trace string, err error) error {
	var e Error
	if errors.As(err, &e) {
		trace := append(append([]string{}, e.Trace...), trace)
		return Error{Original: e.Original, Trace: trace}
	}
	return Error{Original: err, Trace: []string{trace}}
}

func (e Error) Error() string {
	return fmt.Sprintf("%v | Trace: %s", e.Original, strings.Join(e.Trace, ", "))
}

func (e Error) Unwrap() error {
	return e.Original
}
