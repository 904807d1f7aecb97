package common

import (
	"fmt"
	"strings"
)

// ValidationError describes rejected input. Fields lists the offending input
// names so the client can highlight them; Message is the human readable text.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is(err, ErrorValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrorValidation
}

// MissingFields builds the error returned when mandatory inputs are absent.
func MissingFields(fields ...string) *ValidationError {
	return &ValidationError{
		Fields:  fields,
		Message: "missing required fields: " + strings.Join(fields, ", "),
	}
}

// InvalidField builds a single-field validation error.
func InvalidField(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Fields:  []string{field},
		Message: fmt.Sprintf(format, args...),
	}
}
