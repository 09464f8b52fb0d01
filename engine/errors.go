package engine

import (
	"fmt"
	"strings"
)

// GenerationError reports a failure while generating one template. Stage names
// the pipeline step that failed; Err keeps the underlying ConfigurationError,
// TransformError or ParseError reachable through errors.As.
type GenerationError struct {
	Path    string
	Stage   string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	prefix := e.Path
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Path, e.Stage)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

type MultiError struct {
	Errors []*GenerationError
}

func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var msgs []string
	for _, err := range m.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("multiple errors:\n%s", strings.Join(msgs, "\n"))
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	errs := make([]error, len(m.Errors))
	for i, err := range m.Errors {
		errs[i] = err
	}
	return errs
}

func (m *MultiError) Add(path, stage, message string, err error) {
	m.Errors = append(m.Errors, &GenerationError{
		Path:    path,
		Stage:   stage,
		Message: message,
		Err:     err,
	})
}

// AddError appends err, keeping it as is when it already is a GenerationError.
func (m *MultiError) AddError(path string, err error) {
	if genErr, ok := err.(*GenerationError); ok {
		m.Errors = append(m.Errors, genErr)
		return
	}
	m.Add(path, "", "generation failed", err)
}

func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}
