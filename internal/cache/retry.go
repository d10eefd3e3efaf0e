package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorKind categorizes a failed read
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindTimeout    ErrorKind = "timeout"
	KindNotFound   ErrorKind = "not_found"
	KindPermission ErrorKind = "permission"
	KindValidation ErrorKind = "validation"
	KindUnknown    ErrorKind = "unknown"
)

// Retryable reports whether a failure of this kind may succeed on another attempt
func (k ErrorKind) Retryable() bool {
	return k == KindNetwork || k == KindTimeout
}

// LoadError is returned by Retry once it gives up
type LoadError struct {
	Kind     ErrorKind
	Attempts int
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load failed (%s after %d attempt(s)): %v", e.Kind, e.Attempts, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Classifier maps an error to its kind
type Classifier func(err error) ErrorKind

// RetryPolicy bounds retries of read operations. Mutations are never retried.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Classify    Classifier
}

// DefaultRetryPolicy returns the policy used for category and expense loading
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     200 * time.Millisecond,
		Classify:    ClassifyError,
	}
}

// ClassifyError recognizes context and network failures; everything else is unknown
func ClassifyError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	return KindUnknown
}

// Retry runs fn until it succeeds, fails with a non-retryable kind, or the attempt
// budget is spent. The wait before attempt n is n times the policy backoff.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Classify == nil {
		policy.Classify = ClassifyError
	}

	var zero T
	var lastErr error
	kind := KindUnknown

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err
		kind = policy.Classify(err)

		if !kind.Retryable() || attempt == policy.MaxAttempts {
			return zero, &LoadError{Kind: kind, Attempts: attempt, Err: lastErr}
		}

		select {
		case <-ctx.Done():
			return zero, &LoadError{Kind: KindTimeout, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(time.Duration(attempt) * policy.Backoff):
		}
	}

	return zero, &LoadError{Kind: kind, Attempts: policy.MaxAttempts, Err: lastErr}
}
