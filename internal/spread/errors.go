package spread

import "fmt"

// ValidationError reports a leg configuration that does not form a credit
// spread. No analysis is attempted for it.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid spread: %s", e.Reason)
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
