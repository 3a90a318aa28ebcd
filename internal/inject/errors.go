package inject

import (
	"fmt"

	"deobinject/internal/jvmfmt"
)

// TypeError reports a field or argument whose vanilla type cannot be
// proven convertible to the type the API declares.
type TypeError struct {
	Member string
	From   jvmfmt.Type
	To     jvmfmt.Type
	Reason string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("inject: %s: type %s is not convertible to %s: %s", e.Member, e.From, e.To, e.Reason)
}

// InternalError reports a defect in code synthesis: generated code the
// execution engine rejects or a type with no return instruction.
type InternalError struct {
	Member string
	Err    error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("inject: internal error in %s: %v", e.Member, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors.Cause see through the wrapper.
func (e *InternalError) Cause() error { return e.Err }
