package ictest

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDescriptor reports a descriptor that violates a structural
	// constraint. It is raised at construction, before any byte is produced.
	ErrInvalidDescriptor = errors.New("ictest: invalid descriptor")

	// ErrUnknownPin is returned by resolvers for names missing from the pin map.
	ErrUnknownPin = errors.New("ictest: unknown pin")

	// ErrNotFound means no syntactically valid reply frame is in the buffer.
	ErrNotFound = errors.New("ictest: reply frame not found")

	// ErrMalformedFrame means a frame was located but its result count does not
	// match what the command asked for.
	ErrMalformedFrame = errors.New("ictest: malformed reply frame")

	// ErrTruncatedFrame means a frame header was received but the transport
	// delivered fewer bytes than its count field promises.
	ErrTruncatedFrame = errors.New("ictest: truncated reply frame")
)

// DescriptorError names the descriptor field that failed validation.
// It matches ErrInvalidDescriptor with errors.Is, and also the underlying
// resolver error when one is present.
type DescriptorError struct {
	What   string
	Field  string
	Reason string
	Err    error
}

func (e *DescriptorError) Error() string {
	msg := fmt.Sprintf("ictest: invalid %s %s: %s", e.What, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DescriptorError) Is(target error) bool {
	return target == ErrInvalidDescriptor
}

func (e *DescriptorError) Unwrap() error {
	return e.Err
}

func invalid(what, field, format string, args ...any) error {
	return &DescriptorError{What: what, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CountError describes a located frame whose result count is not the expected one.
type CountError struct {
	Expected int
	Actual   int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("ictest: malformed reply frame: expected %d results, got %d", e.Expected, e.Actual)
}

func (e *CountError) Is(target error) bool {
	return target == ErrMalformedFrame
}
