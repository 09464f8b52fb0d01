package transform

import "fmt"

// ConfigurationError reports a missing or malformed directive or host field. It is
// raised during Initialize, before the template is parsed, and aborts the compilation.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// TransformError reports that a transformer's precondition on the code tree did
// not hold. It aborts the compilation; the code tree is never emitted.
type TransformError struct {
	Unit         string
	Precondition string
	Err          error
}

func (e *TransformError) Error() string {
	msg := fmt.Sprintf("transform %s: %s", e.Unit, e.Precondition)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
