package filter

import (
	"fmt"
)

// Error types for filter operations
type (
	// CompilationError indicates a filter expression could not be compiled
	CompilationError struct {
		Expression string
		Reason     string
		Err        error
	}

	// EvaluationError indicates a filter could not be evaluated against a
	// film or a comment
	EvaluationError struct {
		Expression string
		Subject    string
		Err        error
	}

	// UnknownPresetError is returned when a named filter is not configured
	UnknownPresetError struct {
		Name      string
		Available []string
	}
)

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compilation error in '%s': %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error for '%s' on %s: %v", e.Expression, e.Subject, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func (e *UnknownPresetError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("filter preset '%s' not found (none configured)", e.Name)
	}
	return fmt.Sprintf("filter preset '%s' not found (available: %v)", e.Name, e.Available)
}
