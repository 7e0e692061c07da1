package analysis

import "fmt"

// AnalysisError represents a failed CV analysis call. Analysis failures
// are fatal to a pipeline run and are never retried at this layer.
type AnalysisError struct {
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cv analysis failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cv analysis failed: %s", e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}
