package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound marks a 404 from the domain store.
	ErrNotFound = errors.New("not found")

	// ErrNetwork marks transport failures and 5xx responses.
	ErrNetwork = errors.New("network error")
)

// RetryableError marks a failure worth another attempt. Only GETs are
// wrapped; position writes never are.
type RetryableError struct{ Err error }

// Retryable wraps err. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err or anything it wraps is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff is a retry schedule: up to Attempts calls, sleeping Delay after
// the first failure and doubling each time, capped at Max when Max > 0.
type Backoff struct {
	Attempts int
	Delay    time.Duration
	Max      time.Duration
}

// DefaultBackoff waits 1s, then 2s, across three attempts.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second, Max: 8 * time.Second}

// Do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx ends.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt >= b.Attempts {
			return err
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		if delay *= 2; b.Max > 0 && delay > b.Max {
			delay = b.Max
		}
	}
}

// RetryWithBackoff runs fn on [DefaultBackoff].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Do(ctx, fn)
}

// Retry runs fn with attempts tries starting at delay.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Backoff{Attempts: attempts, Delay: delay}.Do(ctx, fn)
}
