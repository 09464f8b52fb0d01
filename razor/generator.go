package razor

import (
	"fmt"
	"strings"

	"github.com/cpcf/razorgen/codetree"
)

// CodeGenerator turns a parsed Document into the initial code tree of a template.
type CodeGenerator interface {
	Generate(doc *Document) (*codetree.Unit, error)
	SetGenerateLinePragmas(enabled bool)
}

// DirectiveHandler applies a directive span to the unit being generated.
type DirectiveHandler func(unit *codetree.Unit, span Span) error

// ExecuteMethod is the name of the method rendering the template body.
const ExecuteMethod = "Execute"

// Generator is the core code generator. Markup becomes WriteLiteral calls,
// expressions become Write calls and code blocks are copied verbatim into the
// Execute method. Template-mapped code is bracketed with #line markers when line
// pragmas are enabled; #line hidden markers are always emitted.
type Generator struct {
	ClassName           string
	BaseClass           string
	Namespace           string
	SourceFile          string
	GenerateLinePragmas bool

	handlers map[string]DirectiveHandler
}

func NewGenerator(className, baseClass, namespace, sourceFile string) *Generator {
	g := &Generator{
		ClassName:           className,
		BaseClass:           baseClass,
		Namespace:           namespace,
		SourceFile:          sourceFile,
		GenerateLinePragmas: true,
		handlers:            make(map[string]DirectiveHandler),
	}
	g.Handle("using", handleUsing)
	g.Handle("inherits", handleInherits)
	return g
}

// Handle installs h for directive spans with keyword, replacing any previous handler.
func (g *Generator) Handle(keyword string, h DirectiveHandler) {
	g.handlers[keyword] = h
}

func (g *Generator) SetGenerateLinePragmas(enabled bool) {
	g.GenerateLinePragmas = enabled
}

func (g *Generator) Generate(doc *Document) (*codetree.Unit, error) {
	if g.ClassName == "" {
		return nil, fmt.Errorf("generator: class name is required")
	}
	if doc == nil {
		return nil, fmt.Errorf("generator: document is nil")
	}

	class := &codetree.Class{
		Name:       g.ClassName,
		Visibility: "public",
	}
	if g.BaseClass != "" {
		base, err := codetree.ParseTypeReference(g.BaseClass)
		if err != nil {
			return nil, fmt.Errorf("generator: invalid base class: %w", err)
		}
		class.SetBaseType(base)
	}

	unit := &codetree.Unit{Namespace: g.Namespace, Class: class}

	execute := &codetree.Member{
		Kind:      codetree.MemberMethod,
		Name:      ExecuteMethod,
		Type:      codetree.TypeReference{Name: "void"},
		Modifiers: []string{"public", "override"},
	}
	var functions []*codetree.Member

	for _, span := range doc.Spans {
		switch span.Kind {
		case SpanMarkup:
			execute.Body = append(execute.Body, codetree.Statement{
				Text: "WriteLiteral(" + CSharpString(span.Content) + ");",
			})
		case SpanExpression:
			execute.Body = g.mapped(execute.Body, span, "Write("+span.Content+");")
		case SpanCode:
			if span.Content != "" {
				execute.Body = g.mapped(execute.Body, span, span.Content)
			}
		case SpanFunctions:
			functions = append(functions, &codetree.Member{
				Kind: codetree.MemberSnippet,
				Name: "functions",
				Body: g.mapped(nil, span, span.Content),
			})
		case SpanDirective:
			h, ok := g.handlers[span.Keyword]
			if !ok {
				return nil, &ParseError{Line: span.Line, Column: span.Column, Message: fmt.Sprintf("unsupported directive @%s", span.Keyword)}
			}
			if err := h(unit, span); err != nil {
				return nil, err
			}
		}
	}

	class.Members = append(class.Members,
		&codetree.Member{Kind: codetree.MemberSnippet, Body: []codetree.Statement{codetree.Marker(codetree.PragmaHidden)}},
	)
	class.Members = append(class.Members, functions...)
	class.Members = append(class.Members,
		&codetree.Member{Kind: codetree.MemberConstructor, Name: g.ClassName, Modifiers: []string{"public"}},
		execute,
	)

	return unit, nil
}

func (g *Generator) mapped(body []codetree.Statement, span Span, text string) []codetree.Statement {
	if !g.GenerateLinePragmas {
		return append(body, codetree.Statement{Text: text})
	}
	return append(body,
		codetree.Statement{Text: text, Pragma: &codetree.LinePragma{Kind: codetree.PragmaLine, Line: span.Line, File: g.SourceFile}},
		codetree.Marker(codetree.PragmaDefault),
		codetree.Marker(codetree.PragmaHidden),
	)
}

func handleUsing(unit *codetree.Unit, span Span) error {
	unit.AddImport(span.Content)
	return nil
}

func handleInherits(unit *codetree.Unit, span Span) error {
	base, err := codetree.ParseTypeReference(span.Content)
	if err != nil {
		return &ParseError{Line: span.Line, Column: span.Column, Message: fmt.Sprintf("@inherits: %v", err)}
	}
	unit.Class.SetBaseType(base)
	return nil
}

// CSharpString quotes s as a C# regular string literal.
func CSharpString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if r < 0x20 || r == 0x2028 || r == 0x2029 {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
