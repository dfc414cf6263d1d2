package bridge

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSpawn is matched by every *SpawnError.
	ErrSpawn = errors.New("analyzer spawn failed")
	// ErrTimeout is matched by every *TimeoutError.
	ErrTimeout = errors.New("analyzer timed out")
	// ErrMalformedOutput reports an exit-0 payload that could not be decoded (strict mode only).
	ErrMalformedOutput = errors.New("analyzer output is malformed")
	// ErrBreakerOpen reports that the breaker skipped the invocation.
	ErrBreakerOpen = errors.New("analyzer circuit open")
)

// SpawnError means the analyzer process could not be started at all.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start analyzer %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() []error {
	return []error{ErrSpawn, e.Err}
}

// TimeoutError means the analyzer exceeded its deadline and was killed.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analyzer timed out after %s", e.After)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}
