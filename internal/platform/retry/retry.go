// Package retry consolidates the per-function ad-hoc retry/backoff loops
// the teacher's workers each wrote separately into a single combinator
// parameterized by error classification (spec §9 design note), using
// cenkalti/backoff/v4 for the exponential schedule.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hinata/core/internal/core/apierr"
)

// Policy configures the retry combinator's backoff schedule and attempt cap.
type Policy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries uint64
}

// StorageWritePolicy matches spec §4.3: "writes are retried up to 3 times
// with exponential backoff (base 100 ms, cap 2 s)".
func StorageWritePolicy() Policy {
	return Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second, MaxRetries: 3}
}

// ExternalModelPolicy matches spec §4.8/§7: external-model errors retryable
// up to N=2 with backoff.
func ExternalModelPolicy() Policy {
	return Policy{BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second, MaxRetries: 2}
}

// Do runs fn, retrying per policy only while the error classifies as
// retryable (apierr.Kind.Retryable). A non-retryable classification, or
// context cancellation, stops the loop immediately.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = policy.BaseDelay
	expo.MaxInterval = policy.MaxDelay
	expo.MaxElapsedTime = 0 // bounded by MaxRetries instead of wall-clock

	bo := backoff.WithContext(backoff.WithMaxRetries(expo, policy.MaxRetries), ctx)

	return backoff.Retry(func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !apierr.Classify(err).Retryable() {
			return backoff.Permanent(err)
		}

		return err
	}, bo)
}
