package tester

import (
	"errors"
	"fmt"
)

// ErrNoResponse means the wait expired without any reply frame arriving.
var ErrNoResponse = errors.New("tester: no response")

// TransportError wraps a failure of the underlying transport.
type TransportError struct {
	Op  string // "write" or "read"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tester: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
