package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries one FieldError per failed rule.
// Err is the cause reported when no field is involved.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return err.Fields[0].Error
	}
	return ""
}

// Messages returns the messages of every FieldError in order.
func (err ValidationError) Messages() []string {
	msgs := make([]string, 0, len(err.Fields))
	for _, fe := range err.Fields {
		msgs = append(msgs, fe.Error)
	}
	return msgs
}

// FieldMap groups messages by field. A field may fail several rules.
func (err ValidationError) FieldMap() map[string][]string {
	fields := make(map[string][]string, len(err.Fields))
	for _, fe := range err.Fields {
		fields[fe.Field] = append(fields[fe.Field], fe.Error)
	}
	return fields
}

// AsValidationError returns the *ValidationError at the root of err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	vErr, ok := errors.Cause(err).(*ValidationError)
	return vErr, ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
