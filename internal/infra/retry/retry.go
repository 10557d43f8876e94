// Package retry runs idempotent upstream calls with a bounded number of
// attempts and a doubling backoff between them, on top of cenkalti/backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds a retried call. Attempts counts the first call, so
// Attempts=2 is one retry.
type Policy struct {
	Attempts int
	Backoff  time.Duration
}

// Once is the policy used for lookup, text estimation and chat calls.
func Once(pause time.Duration) Policy {
	return Policy{Attempts: 2, Backoff: pause}
}

// Permanent wraps err so Do returns it without further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *backoff.PermanentError
	return errors.As(err, &p)
}

// newBackOff doubles the pause after every failed attempt, without jitter.
func (p Policy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Backoff
	b.RandomizationFactor = 0
	b.Multiplier = 2
	return b
}

// Do calls fn until it succeeds, returns a permanent error, the attempts are
// exhausted or ctx is done. Permanent errors come back unwrapped.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	tries := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		tries++
		return struct{}{}, fn(ctx)
	},
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
	)
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	if tries > 1 {
		return fmt.Errorf("all %d attempts failed: %w", tries, err)
	}
	return err
}
