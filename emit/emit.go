// Package emit renders a transformed code tree as C# source.
//
// The layout lives in an embedded text/template; helpers registered in the
// template's FuncMap render the pieces that need escaping or indentation.
//
// Example usage:
//
//	em, err := emit.New()
//	if err != nil { ... }
//	src, err := em.Emit(unit)
package emit

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/cpcf/razorgen/codetree"
)

//go:embed templates/csharp.tmpl
var csharpTemplate string

type Emitter struct {
	tmpl *template.Template
}

type Option func(*config)

type config struct {
	source string
	funcs  template.FuncMap
}

// WithTemplate replaces the embedded layout. The template receives a *codetree.Unit.
func WithTemplate(source string) Option {
	return func(c *config) {
		c.source = source
	}
}

// WithFuncs adds template functions, overriding built-in helpers of the same name.
func WithFuncs(funcs template.FuncMap) Option {
	return func(c *config) {
		for name, fn := range funcs {
			c.funcs[name] = fn
		}
	}
}

func New(opts ...Option) (*Emitter, error) {
	c := &config{source: csharpTemplate, funcs: Funcs()}
	for _, opt := range opts {
		opt(c)
	}

	tmpl, err := template.New("csharp").Funcs(c.funcs).Option("missingkey=error").Parse(c.source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse emit template: %w", err)
	}
	return &Emitter{tmpl: tmpl}, nil
}

// Emit renders unit. The unit must have a namespace and a class.
func (e *Emitter) Emit(unit *codetree.Unit) ([]byte, error) {
	if unit == nil || unit.Class == nil {
		return nil, fmt.Errorf("emit: code tree has no class")
	}
	if unit.Namespace == "" {
		return nil, fmt.Errorf("emit: class %s has no namespace", unit.Class.Name)
	}

	var buf strings.Builder
	if err := e.tmpl.Execute(&buf, unit); err != nil {
		return nil, fmt.Errorf("emit %s: %w", unit.Class.Name, err)
	}
	return []byte(buf.String()), nil
}

// Funcs returns the helpers available to emit templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"attribute":  Attribute,
		"classDecl":  ClassDeclaration,
		"memberDecl": MemberDeclaration,
		"isSnippet": func(m *codetree.Member) bool {
			return m.Kind == codetree.MemberSnippet
		},
		"stmt":   Statement,
		"indent": Indent,
	}
}

// Attribute renders a as "[global::Name(args)]".
func Attribute(a codetree.Attribute) string {
	var b strings.Builder
	b.WriteString("[global::")
	b.WriteString(strings.TrimPrefix(a.Name, "global::"))
	if len(a.Arguments) > 0 {
		b.WriteByte('(')
		for i, arg := range a.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			if arg.Name != "" {
				b.WriteString(arg.Name)
				b.WriteString(" = ")
			}
			b.WriteString(arg.Value)
		}
		b.WriteByte(')')
	}
	b.WriteByte(']')
	return b.String()
}

func ClassDeclaration(c *codetree.Class) string {
	parts := make([]string, 0, 5)
	if c.Visibility != "" {
		parts = append(parts, c.Visibility)
	}
	if c.Partial {
		parts = append(parts, "partial")
	}
	parts = append(parts, "class", c.Name)

	decl := strings.Join(parts, " ")
	if len(c.BaseTypes) > 0 {
		bases := make([]string, len(c.BaseTypes))
		for i, t := range c.BaseTypes {
			bases[i] = t.String()
		}
		decl += " : " + strings.Join(bases, ", ")
	}
	return decl
}

func MemberDeclaration(m *codetree.Member) string {
	parts := make([]string, 0, len(m.Modifiers)+2)
	parts = append(parts, m.Modifiers...)
	if m.Kind == codetree.MemberMethod {
		typ := "void"
		if !m.Type.IsZero() {
			typ = m.Type.String()
		}
		parts = append(parts, typ)
	}
	parts = append(parts, m.Name+"()")
	return strings.Join(parts, " ")
}

// Statement renders s at the given indentation. Line directives always start in
// column 0.
func Statement(s codetree.Statement, indent int) string {
	if s.IsMarker() {
		return s.Pragma.Directive()
	}
	text := Indent(indent, s.Text)
	if s.Pragma != nil {
		return s.Pragma.Directive() + "\n" + text
	}
	return text
}

// Indent prefixes every non-blank line of s with n spaces. Leading and trailing
// blank lines are dropped.
func Indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for len(lines) > 1 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 1 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = pad + line
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}
