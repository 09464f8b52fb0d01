package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/cpcf/razorgen/transform"
)

func TestGenerationErrorMessage(t *testing.T) {
	err := &GenerationError{Path: "Views/Index.cshtml", Stage: StageParse, Message: "failed to parse template", Err: errors.New("line 3")}
	want := "Views/Index.cshtml [parse]: failed to parse template: line 3"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	bare := &GenerationError{Path: "x.cshtml", Message: "failed"}
	if bare.Error() != "x.cshtml: failed" {
		t.Errorf("Unexpected message %q", bare.Error())
	}
}

func TestMultiError(t *testing.T) {
	var m MultiError
	if m.HasErrors() || m.Error() != "no errors" {
		t.Fatal("Expected empty MultiError")
	}

	cfgErr := &transform.ConfigurationError{Field: "Generator", Message: "unknown flavor"}
	m.AddError("a.cshtml", &GenerationError{Path: "a.cshtml", Stage: StageResolve, Message: "failed to resolve flavor", Err: cfgErr})
	if m.Error() != m.Errors[0].Error() {
		t.Errorf("Single error should print as itself, got %q", m.Error())
	}

	m.AddError("b.cshtml", errors.New("disk full"))
	if !m.HasErrors() || len(m.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(m.Errors))
	}
	if m.Errors[1].Path != "b.cshtml" {
		t.Errorf("Expected wrapped path b.cshtml, got %s", m.Errors[1].Path)
	}
	if !strings.HasPrefix(m.Error(), "multiple errors:\n") {
		t.Errorf("Unexpected message %q", m.Error())
	}

	var target *transform.ConfigurationError
	if !errors.As(&m, &target) {
		t.Error("Expected ConfigurationError reachable through MultiError")
	}
}
