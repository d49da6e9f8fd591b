package transport

import (
	"context"
	"errors"
	"time"
)

// PermanentError stops Retry before its attempts are exhausted.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// Retry runs operation at most maxAttempts times with a fixed delay between
// attempts and returns the first success or the last failure.
func Retry[T any](
	ctx context.Context,
	maxAttempts int,
	delay time.Duration,
	operation func(context.Context) (T, error),
) (T, error) {
	var (
		zero    T
		lastErr error
	)
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return zero, permanent.Err
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
