package circuitbreaker

import "errors"

var (
	// ErrCircuitOpen is returned while the breaker is open and calls are
	// short-circuited.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyRequests is returned while half-open once the trial request
	// budget is spent.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// IsRejected reports whether err means the breaker refused the call without
// running it. Such errors must not be retried.
func IsRejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}
