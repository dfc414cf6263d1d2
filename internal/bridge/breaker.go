package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerOptions configures a Breaker. Zero values take defaults.
type BreakerOptions struct {
	Name        string
	MaxFailures uint32        // consecutive failures before opening
	OpenTimeout time.Duration // time spent open before a probe
	Interval    time.Duration // closed-state counter reset period; 0 never resets
	// OnStateChange observes transitions, e.g. for logging.
	OnStateChange func(name string, from, to gobreaker.State)
}

const (
	defaultMaxFailures = 3
	defaultOpenTimeout = 30 * time.Second
)

// Breaker stops spawning the analyzer after repeated spawn failures or
// timeouts. Non-zero exits are answers, not failures.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[RawOutput]
}

// NewBreaker builds a Breaker from opts.
func NewBreaker(opts BreakerOptions) *Breaker {
	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultMaxFailures
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}
	name := opts.Name
	if name == "" {
		name = "analyzer"
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    opts.Interval,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// a canceled request says nothing about the analyzer
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	}
	if opts.OnStateChange != nil {
		settings.OnStateChange = opts.OnStateChange
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[RawOutput](settings)}
}

// Do runs fn through the breaker. A timed-out run is returned as RawOutput
// with TimedOut set and a nil error, but still counts as a failure. While
// open, Do returns an error wrapping ErrBreakerOpen without calling fn.
func (b *Breaker) Do(fn func() (RawOutput, error)) (RawOutput, error) {
	if b == nil {
		return fn()
	}
	raw, err := b.cb.Execute(func() (RawOutput, error) {
		raw, err := fn()
		if err == nil && raw.TimedOut {
			return raw, &TimeoutError{After: raw.Elapsed}
		}
		return raw, err
	})
	switch {
	case err == nil:
		return raw, nil
	case errors.Is(err, ErrTimeout):
		return raw, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return RawOutput{}, fmt.Errorf("%w: %w", ErrBreakerOpen, err)
	}
	return raw, err
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State {
	if b == nil {
		return gobreaker.StateClosed
	}
	return b.cb.State()
}
