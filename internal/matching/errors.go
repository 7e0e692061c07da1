package matching

import "fmt"

// FailureKind classifies why a ranking attempt failed.
type FailureKind string

const (
	// FailureTimeout means the reasoning service did not answer in time.
	FailureTimeout FailureKind = "timeout"
	// FailureTransport covers connection and service-side errors.
	FailureTransport FailureKind = "transport"
	// FailureDecode means the response carried no usable match array.
	FailureDecode FailureKind = "decode"
)

// RankingError reports a failed batch ranking attempt.
type RankingError struct {
	Kind    FailureKind
	Message string
	Cause   error
}

func (e *RankingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ranking failed (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("ranking failed (%s): %s", e.Kind, e.Message)
}

func (e *RankingError) Unwrap() error {
	return e.Cause
}
