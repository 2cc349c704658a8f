package pipeline

import (
	"context"

	backoff "github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often a failed network step is reattempted.
// Attempts counts the first try; RetryOn decides whether a given failure is
// retry-eligible. The zero value means a single attempt, no retry.
type RetryPolicy struct {
	Attempts int
	RetryOn  func(error) bool
}

// CreateRetryPolicy is the submission default: the create call gets exactly
// one retry, and only after an observed server-side (5xx) failure. Transport
// failures are not retry-eligible.
func CreateRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 2,
		RetryOn:  func(err error) bool { return KindOf(err) == KindServer },
	}
}

// Run invokes fn until it succeeds, the attempt budget is spent, a
// non-eligible error occurs, or ctx is done. The returned error is the last
// attempt's error.
func (p RetryPolicy) Run(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(attempts-1)), ctx)
	return backoff.Retry(func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.RetryOn != nil && p.RetryOn(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
