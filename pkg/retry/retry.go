package retry

import (
	"context"
	"time"

	"github.com/googleapis/gax-go/v2"
)

// Defaults for a zero-value Policy.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 250 * time.Millisecond
)

// Policy retries an operation with exponential backoff: the wait before
// attempt N+1 is BaseDelay doubled N-1 times. A non-retryable
// classification aborts immediately with no wait; exhausting all
// attempts returns the last classified error.
//
// The zero value is usable and applies the package defaults.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the
	// first. Values < 1 mean DefaultMaxAttempts.
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt. Doubles on
	// each subsequent failure. Values <= 0 mean DefaultBaseDelay.
	BaseDelay time.Duration
}

// Do invokes fn until it succeeds, fails non-retryably, the attempt cap
// is reached, or ctx is done. Failures are classified under code (see
// [Classify]). The backoff delay is deterministic (no jitter): turns in
// this protocol are already serialized per connection, so synchronized
// retries across callers are not a concern, and tests can bound the
// minimum elapsed wait.
func (p Policy) Do(ctx context.Context, code string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = DefaultMaxAttempts
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}

	var last *Error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := gax.Sleep(ctx, delay); err != nil {
				// Context cancelled while waiting: surface the last
				// failure rather than a bare context error.
				return last
			}
			delay *= 2
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		last = Classify(err, code)
		if !last.Retryable {
			return last
		}
	}
	return last
}
