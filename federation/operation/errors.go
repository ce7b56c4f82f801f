package operation

import "fmt"

// InputErrorKind classifies a CoerceVariables/ResolveArgument failure per the
// distinct user-facing input-validation categories.
type InputErrorKind int

const (
	// NullError: a non-null position received null or a missing variable.
	NullError InputErrorKind = iota
	// TypeError: a scalar or enum literal's shape does not match its type.
	TypeError
	// UnknownFieldError: an input object literal named a field the input
	// type does not declare.
	UnknownFieldError
	// MissingFieldError: a required input field was not supplied.
	MissingFieldError
	// OneOfError: an @oneOf input object did not have exactly one field set.
	OneOfError
	// UndeclaredVariableError: a variable was used but never supplied.
	UndeclaredVariableError
)

// InputValueError is returned when a variable or argument literal cannot be
// coerced into its schema-declared type.
type InputValueError struct {
	Kind    InputErrorKind
	Path    string
	Message string
}

func (e *InputValueError) Error() string {
	return fmt.Sprintf("operation: at %s: %s", e.Path, e.Message)
}

func inputErrf(kind InputErrorKind, path, format string, args ...interface{}) *InputValueError {
	return &InputValueError{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
}
