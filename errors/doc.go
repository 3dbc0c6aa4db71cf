// Package errors provides structured error types for the sharedptr module.
//
// Errors are categorized by Phase (where in a handle's lifecycle the error
// occurred) and Kind (error category). The Error type carries the Go type
// name, a detail message, the offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMake, errors.KindTypeMismatch).
//		GoType("*main.Widget").
//		Detail("does not implement %s", "fmt.Stringer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseMake, "*main.Widget", "fmt.Stringer")
//	err := errors.NotFound(errors.PhaseTable, "handle", 7)
//
// Contract violations, such as dereferencing an empty handle, panic with an
// *Error so that recover() callers can inspect Phase and Kind.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
