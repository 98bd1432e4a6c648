package core

import "github.com/pkg/errors"

// FieldError pins a validation failure to the offending struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries an overall message plus any per-field failures;
// with Fields set the API layer renders a field-to-message map, otherwise
// the bare message.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals that the app cannot keep serving and must stop.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown checks the error chain for a shutdown signal.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
