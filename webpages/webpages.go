// Package webpages implements the WebPage flavor for ASP.NET Web Pages templates.
// It starts with the same directive and attribute units as MvcView and differs in
// imports, base type and code generator.
package webpages

import (
	"slices"

	"github.com/cpcf/razorgen/codetree"
	"github.com/cpcf/razorgen/host"
	"github.com/cpcf/razorgen/razor"
	"github.com/cpcf/razorgen/transform"
)

const (
	FlavorName = "WebPage"

	WebPageType = "System.Web.WebPages.WebPage"

	DefaultTool    = "RazorGenerator"
	DefaultVersion = "2.0.0.0"
)

var namespaces = []string{
	"System",
	"System.Collections.Generic",
	"System.IO",
	"System.Linq",
	"System.Net",
	"System.Web",
	"System.Web.Helpers",
	"System.Web.Security",
	"System.Web.UI",
	"System.Web.WebPages",
}

func Namespaces() []string {
	return slices.Clone(namespaces)
}

type options struct {
	tool    string
	version string
}

type Option func(*options)

// WithGeneratedCode sets the tool name and version recorded in the generated-code attribute.
func WithGeneratedCode(tool, version string) Option {
	return func(o *options) {
		if tool != "" {
			o.tool = tool
		}
		if version != "" {
			o.version = version
		}
	}
}

// NewPageTransformer builds the WebPage pipeline.
func NewPageTransformer(opts ...Option) *transform.Aggregate {
	o := options{tool: DefaultTool, version: DefaultVersion}
	for _, opt := range opts {
		opt(&o)
	}

	return transform.NewAggregate(FlavorName,
		transform.NewCommonPrefix(o.tool, o.version),
		&transform.SetImports{Namespaces: Namespaces()},
		&transform.SetBaseType{TypeName: WebPageType},
		&transform.RemoveLineHiddenPragmas{},
		&transform.MakeTypePartial{},
	).WithRebinder(transform.RebinderFunc(Rebind))
}

func Register(reg *transform.Registry, opts ...Option) error {
	return reg.Register(FlavorName,
		func() transform.Transformer { return NewPageTransformer(opts...) },
		transform.WithDescription("ASP.NET Web Pages"),
		transform.WithExtensions(".cshtml"),
	)
}

// Rebind installs the core parser and a code generator that resolves the class
// name, base class and namespace from h when it runs.
func Rebind(h *host.Host, _ host.Directives) error {
	if h.FullPath == "" {
		return &transform.ConfigurationError{Field: "FullPath", Message: "template path is empty"}
	}
	h.Parser = razor.NewCoreParser()
	h.CodeGenerator = &pageGenerator{host: h, linePragmas: h.EnableLinePragmas}
	return nil
}

type pageGenerator struct {
	host        *host.Host
	linePragmas bool
}

func (g *pageGenerator) SetGenerateLinePragmas(enabled bool) {
	g.linePragmas = enabled
}

func (g *pageGenerator) Generate(doc *razor.Document) (*codetree.Unit, error) {
	gen := razor.NewGenerator(g.host.DefaultClassName, g.host.DefaultBaseClass, g.host.DefaultNamespace, g.host.FullPath)
	gen.SetGenerateLinePragmas(g.linePragmas)
	return gen.Generate(doc)
}
