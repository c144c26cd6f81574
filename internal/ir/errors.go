package ir

import (
	"fmt"
)

// PreconditionError is raised (via panic) when a caller violates a
// structural precondition of the core. It signals a bug in the caller and
// is never recovered inside this package.
type PreconditionError struct {
	Op      string
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("ir: %s: %s", e.Op, e.Message)
}

func assertf(cond bool, op string, format string, args ...interface{}) {
	if !cond {
		panic(&PreconditionError{Op: op, Message: fmt.Sprintf(format, args...)})
	}
}
