// Package retrier retries calls to flaky remote services with exponential backoff.
package retrier

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

const (
	maxInterval = 10 * time.Second
	jitter      = 0.1
)

// Retrier retries a call while its error is retryable, doubling the pause every time.
type Retrier struct {
	initialInterval time.Duration
	maxRetries      int
	retryIf         func(error) bool
	onRetry         func(attempt int, err error)
}

// Option configures the Retrier.
type Option func(*Retrier)

// WithInitialInterval pause before the first retry.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.initialInterval = d
	}
}

// WithMaxRetries number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.maxRetries = n
	}
}

// WithRetryIf retries only errors the predicate accepts; others are returned at once.
func WithRetryIf(retryIf func(error) bool) Option {
	return func(r *Retrier) {
		r.retryIf = retryIf
	}
}

// WithOnRetry registers a callback invoked before every retry with the failed attempt number.
func WithOnRetry(onRetry func(attempt int, err error)) Option {
	return func(r *Retrier) {
		r.onRetry = onRetry
	}
}

// New creates a Retrier: 4 retries starting at 500ms unless overridden.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		initialInterval: 500 * time.Millisecond,
		maxRetries:      4,
		retryIf:         func(error) bool { return true },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// pause before retry number attempt (1-based), jittered by ±10%.
func (r *Retrier) pause(attempt int) time.Duration {
	d := r.initialInterval << (attempt - 1)
	if d > maxInterval || d <= 0 {
		d = maxInterval
	}
	return time.Duration(float64(d) * (1 + (rand.Float64()*2-1)*jitter))
}

// Do calls fn until it succeeds, fails with a non-retryable error or the retries run out.
// The last error is returned wrapped with the number of attempts.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !r.retryIf(err) {
			return err
		}
		if attempt == r.maxRetries {
			return errors.Wrapf(err, "gave up after %d attempts", attempt+1)
		}

		if r.onRetry != nil {
			r.onRetry(attempt+1, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.pause(attempt + 1)):
		}
	}
}

// DoWithData is Do for calls returning a value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
