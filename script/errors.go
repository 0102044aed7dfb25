package script

import (
	"errors"
	"fmt"
)

// Sentinel errors for outcome classification.
var (
	// ErrCompile indicates the source text failed to transform into
	// executable form.
	ErrCompile = errors.New("script compile error")

	// ErrExecution indicates the script threw or the interpreter failed
	// while running it.
	ErrExecution = errors.New("script execution error")

	// ErrTimeout indicates the execution exceeded its wall-clock budget.
	ErrTimeout = errors.New("script timeout")
)

// ScriptError is a compile or runtime failure with optional source
// location information.
type ScriptError struct {
	// Message describes the failure.
	Message string

	// Line and Column are 1-based; zero means unknown. Positions refer
	// to the submitted source, not the wrapped translation.
	Line   int
	Column int

	// Err is the classifying sentinel (ErrCompile or ErrExecution).
	Err error
}

// Error returns the message, including the source position if known.
func (e *ScriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Unwrap returns the classifying sentinel for errors.Is.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
