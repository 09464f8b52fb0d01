package mvc

import (
	"fmt"
	"path"
	"strings"

	"github.com/cpcf/razorgen/codetree"
	"github.com/cpcf/razorgen/host"
	"github.com/cpcf/razorgen/razor"
	"github.com/cpcf/razorgen/transform"
)

const (
	// ViewStartPageType is the base type of _ViewStart templates.
	ViewStartPageType = "System.Web.Mvc.ViewStartPage"
	viewStartFileName = "_ViewStart"

	modelKeyword    = "model"
	inheritsKeyword = "inherits"
)

// IsSpecialPage reports whether p names a _ViewStart template. Only the base name
// without its extension is compared, case-insensitively.
func IsSpecialPage(p string) bool {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	name := strings.TrimSuffix(base, path.Ext(base))
	return strings.EqualFold(name, viewStartFileName)
}

// NewViewParser returns the core parser extended with the @model directive.
func NewViewParser() *razor.CoreParser {
	return razor.NewCoreParser(modelKeyword)
}

// ViewCodeGenerator generates view classes. Class name, base class and namespace
// are read from the host when Generate runs, so context changes made by later
// transformers during Initialize are honoured.
type ViewCodeGenerator struct {
	host          *host.Host
	linePragmas   bool
	modelDeclared bool
	inherits      bool
}

func NewViewCodeGenerator(h *host.Host) *ViewCodeGenerator {
	return &ViewCodeGenerator{host: h, linePragmas: h.EnableLinePragmas}
}

func (g *ViewCodeGenerator) SetGenerateLinePragmas(enabled bool) {
	g.linePragmas = enabled
}

// BaseType returns the base type a view gets before any @model or @inherits.
func (g *ViewCodeGenerator) BaseType() (codetree.TypeReference, error) {
	if IsSpecialPage(g.host.FullPath) {
		return codetree.NewTypeReference(ViewStartPageType), nil
	}
	if g.host.DefaultBaseClass == "" {
		return codetree.TypeReference{}, nil
	}
	ref, err := codetree.ParseTypeReference(g.host.DefaultBaseClass)
	if err != nil {
		return codetree.TypeReference{}, err
	}
	if len(ref.Arguments) == 0 {
		ref.Arguments = []codetree.TypeReference{{Name: transform.DefaultModelType}}
	}
	return ref, nil
}

func (g *ViewCodeGenerator) Generate(doc *razor.Document) (*codetree.Unit, error) {
	base, err := g.BaseType()
	if err != nil {
		return nil, fmt.Errorf("view generator: invalid base class %q: %w", g.host.DefaultBaseClass, err)
	}

	gen := razor.NewGenerator(g.host.DefaultClassName, "", g.host.DefaultNamespace, g.host.FullPath)
	gen.SetGenerateLinePragmas(g.linePragmas)
	gen.Handle(modelKeyword, g.handleModel)
	gen.Handle(inheritsKeyword, g.handleInherits)
	g.modelDeclared, g.inherits = false, false

	unit, err := gen.Generate(doc)
	if err != nil {
		return nil, err
	}
	if !g.modelDeclared && !g.inherits && !base.IsZero() {
		unit.Class.SetBaseType(base)
	}
	return unit, nil
}

func (g *ViewCodeGenerator) handleModel(unit *codetree.Unit, span razor.Span) error {
	switch {
	case g.modelDeclared:
		return &razor.ParseError{Line: span.Line, Column: span.Column, Message: "@model may only be declared once"}
	case g.inherits:
		return &razor.ParseError{Line: span.Line, Column: span.Column, Message: "@model cannot be combined with @inherits"}
	case IsSpecialPage(g.host.FullPath):
		return &razor.ParseError{Line: span.Line, Column: span.Column, Message: "@model is not allowed in _ViewStart"}
	}

	model, err := codetree.ParseTypeReference(span.Content)
	if err != nil {
		return &razor.ParseError{Line: span.Line, Column: span.Column, Message: fmt.Sprintf("@model: %v", err)}
	}
	base, err := g.BaseType()
	if err != nil {
		return err
	}
	if base.IsZero() {
		return &razor.ParseError{Line: span.Line, Column: span.Column, Message: "@model requires a default base class"}
	}
	base.Arguments = []codetree.TypeReference{model}
	unit.Class.SetBaseType(base)
	g.modelDeclared = true
	return nil
}

func (g *ViewCodeGenerator) handleInherits(unit *codetree.Unit, span razor.Span) error {
	if g.modelDeclared {
		return &razor.ParseError{Line: span.Line, Column: span.Column, Message: "@inherits cannot be combined with @model"}
	}
	base, err := codetree.ParseTypeReference(span.Content)
	if err != nil {
		return &razor.ParseError{Line: span.Line, Column: span.Column, Message: fmt.Sprintf("@inherits: %v", err)}
	}
	unit.Class.SetBaseType(base)
	g.inherits = true
	return nil
}
