package store

import "fmt"

// ValidationError reports invalid input to a write operation. Callers
// match it with errors.As to tell client mistakes apart from storage
// faults.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
