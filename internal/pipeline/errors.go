package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoListings marks a run that found nothing to rank. Callers render an
// empty state for it, not a fault.
var ErrNoListings = errors.New("no job listings found")

// ValidationError reports a request rejected before any stage ran.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RateLimitError reports a run denied by the rate gate.
type RateLimitError struct {
	RetryAfterSeconds int
	NextAllowed       time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %ds", e.RetryAfterSeconds)
}
