// Package retry provides retry wrappers for operations that can fail transiently,
// such as waiting for udev to create partition device nodes or unmounting a busy
// filesystem.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	// DefaultTimeout is the timeout used by WithDefaultTimeout
	DefaultTimeout = 30 * time.Second
	// Interval is the time to wait between attempts
	Interval = time.Second
	// ErrAbort can be wrapped into an error to stop retrying immediately
	ErrAbort = errors.New("retrying aborted")
)

// loop runs f until it succeeds, returns ErrAbort, the context is done or
// more returns false. The first attempt is made immediately.
func loop(ctx context.Context, f func(context.Context) error, more func(attempt int) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	attempt := 1
	lastErr := f(ctx)
	if lastErr == nil || errors.Is(lastErr, ErrAbort) {
		return attempt, lastErr
	}

	ticker := time.NewTicker(Interval)
	defer ticker.Stop()

	for more(attempt) {
		select {
		case <-ctx.Done():
			return attempt, errors.Join(ctx.Err(), lastErr)
		case <-ticker.C:
		}

		log.Debugf("retrying, attempt %d - last error: %v", attempt+1, lastErr)
		attempt++
		lastErr = f(ctx)
		if lastErr == nil || errors.Is(lastErr, ErrAbort) {
			return attempt, lastErr
		}
		log.Tracef("retry: attempt %d failed: %v", attempt, lastErr)
	}

	return attempt, lastErr
}

// Context retries f until it succeeds or the context is cancelled
func Context(ctx context.Context, f func(context.Context) error) error {
	_, err := loop(ctx, f, func(int) bool { return true })
	return err
}

// Timeout retries f until it succeeds, the context is cancelled or the timeout is
// reached. A zero timeout only honors the parent context.
func Timeout(ctx context.Context, timeout time.Duration, f func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return Context(ctx, f)
}

// WithDefaultTimeout is Timeout using DefaultTimeout
func WithDefaultTimeout(ctx context.Context, f func(context.Context) error) error {
	return Timeout(ctx, DefaultTimeout, f)
}

// Times retries f until it succeeds or the given number of attempts has been made
func Times(ctx context.Context, times int, f func(context.Context) error) error {
	attempts, err := loop(ctx, f, func(attempt int) bool { return attempt < times })
	if err != nil && !errors.Is(err, ErrAbort) && ctx.Err() == nil && attempts >= times {
		return fmt.Errorf("retry limit exceeded after %d attempts: %w", attempts, err)
	}
	return err
}
