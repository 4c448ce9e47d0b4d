package upstream

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type retryPolicy struct {
	attempts int
	initial  time.Duration
	max      time.Duration
}

func (p retryPolicy) backOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.initial
	bo.MaxInterval = p.max
	bo.Multiplier = 2
	return bo
}

// withRetry runs fn until it succeeds, fails permanently or runs out of
// attempts.
func withRetry(ctx context.Context, p retryPolicy, fn func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(p.backOff()), backoff.WithMaxTries(uint(p.attempts)))

	// The attempt limit is checked before the permanent marker is unwrapped.
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// retryable reports whether err is worth another attempt: network failures,
// timeouts, 429 and 5xx.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= http.StatusInternalServerError
	}
	var decodeErr *decodeError
	if errors.As(err, &decodeErr) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, net.ErrClosed)
}
