package diagnose

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/cpcf/razorgen/engine"
)

// Checker compiles templates without writing their output and reports what
// fails.
type Checker struct {
	engine *engine.Engine
	ctx    engine.Context
	strict bool
}

type Option func(*Checker)

// WithStrict also warns about trailing whitespace.
func WithStrict(strict bool) Option {
	return func(c *Checker) {
		c.strict = strict
	}
}

func NewChecker(e *engine.Engine, ctx engine.Context, opts ...Option) *Checker {
	c := &Checker{engine: e, ctx: ctx}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckTemplate compiles the template at rel, a slash-separated path in the
// project, and returns its diagnostics. Nil means the template is clean.
func (c *Checker) CheckTemplate(rel string) []*Diagnostic {
	content, err := fs.ReadFile(c.ctx.TmplFS, rel)
	if err != nil {
		return []*Diagnostic{FromError(rel, &engine.GenerationError{
			Path:    rel,
			Stage:   engine.StageRead,
			Message: "failed to read template",
			Err:     err,
		})}
	}
	source := string(content)

	var diags []*Diagnostic
	_, err = c.engine.Compile(engine.CompileRequest{
		Path:                c.ctx.FullPath(rel),
		ProjectRelativePath: rel,
		Source:              source,
		ProjectFS:           c.ctx.TmplFS,
	})
	if err != nil {
		diags = append(diags, FromError(rel, err).WithSource(source))
	}

	diags = append(diags, c.lint(rel, source)...)
	return diags
}

func (c *Checker) lint(rel, source string) []*Diagnostic {
	var diags []*Diagnostic

	crlf := strings.Count(source, "\r\n")
	if lf := strings.Count(source, "\n"); crlf > 0 && crlf < lf {
		diags = append(diags, &Diagnostic{
			Severity:    SeverityWarning,
			Template:    rel,
			Message:     "template mixes CRLF and LF line endings",
			Suggestions: []string{"Normalise the template's line endings so #line pragmas stay accurate"},
		})
	}

	if c.strict {
		for i, line := range strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n") {
			if strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
				diags = append(diags, &Diagnostic{
					Severity: SeverityWarning,
					Template: rel,
					Line:     i + 1,
					Message:  "line has trailing whitespace",
					Excerpt:  line,
				})
			}
		}
	}
	return diags
}

// CheckDir checks every template under dir.
func (c *Checker) CheckDir(dir string) (*Report, error) {
	templates, err := c.engine.Discover(c.ctx.TmplFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to discover templates in %s: %w", dir, err)
	}

	report := NewReport()
	for _, rel := range templates {
		report.countTemplate()
		report.Add(c.CheckTemplate(rel)...)
	}
	return report, nil
}
