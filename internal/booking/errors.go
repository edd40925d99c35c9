package booking

import (
	"fmt"
	"strings"
)

// PolicyViolation carries every unmet restriction from a validate pass.
// It is not retryable until the underlying condition changes.
type PolicyViolation struct {
	Restrictions []string
	Warnings     []string
	ClientScore  float64
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("booking rejected: %s", strings.Join(e.Restrictions, "; "))
}

// ValidationError marks malformed input: a bad date string or an
// out-of-range slot number.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
