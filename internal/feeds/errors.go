package feeds

import (
	"errors"
	"fmt"
)

// FetchError reports that an upstream source could not produce data. Values
// returned alongside it are still usable (empty or fallback).
type FetchError struct {
	Source string
	Op     string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s %s unavailable: %v", e.Source, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as a FetchError for source. A nil err yields nil.
func Unavailable(source, op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.Source == source && fe.Op == op {
		return err
	}
	return &FetchError{Source: source, Op: op, Err: err}
}

// IsUnavailable reports whether err means an upstream source was down, as
// opposed to a successful fetch that returned nothing.
func IsUnavailable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// ErrEmptyResponse is returned by clients when a provider answers with no
// usable rows where at least one was expected.
var ErrEmptyResponse = errors.New("empty response")
