// Package mvc implements the MvcView flavor: the transformer pipeline, parser and
// code generator used for ASP.NET MVC Razor views.
package mvc

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/cpcf/razorgen/host"
	"github.com/cpcf/razorgen/transform"
)

const (
	FlavorName = "MvcView"

	// WebViewPageType is the default base class of MVC views.
	WebViewPageType = "System.Web.Mvc.WebViewPage"

	// ClassNamePrefix prefixes class names derived from the template path.
	ClassNamePrefix = "_Page_"

	DefaultTool    = "RazorGenerator"
	DefaultVersion = "2.0.0.0"
)

var namespaces = []string{
	"System.Web.Mvc",
	"System.Web.Mvc.Html",
	"System.Web.Mvc.Ajax",
	"System.Web.Routing",
}

// Namespaces returns the namespaces every view imports.
func Namespaces() []string {
	return slices.Clone(namespaces)
}

type options struct {
	tool     string
	version  string
	baseType string
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

// WithBaseType replaces WebViewPageType as the default view base class.
func WithBaseType(name string) Option {
	return func(o *options) {
		if name != "" {
			o.baseType = name
		}
	}
}

// NewViewTransformer builds the MvcView pipeline. A fresh pipeline is needed for
// every compilation.
func NewViewTransformer(opts ...Option) *transform.Aggregate {
	o := options{tool: DefaultTool, version: DefaultVersion, baseType: WebViewPageType}
	for _, opt := range opts {
		opt(&o)
	}

	return transform.NewAggregate(FlavorName,
		transform.NewDirectivesBasedTransformers(),
		&transform.AddGeneratedClassAttribute{Tool: o.tool, Version: o.version},
		&transform.AddPageVirtualPathAttribute{},
		&transform.SetImports{Namespaces: Namespaces(), ReplaceExisting: false},
		&transform.SetBaseType{TypeName: o.baseType, ModelPlaceholder: true},
		&transform.RemoveLineHiddenPragmas{},
		&WebConfigTransformer{},
		&transform.MakeTypePartial{},
	).
		When(transform.Absent(transform.DirectiveGenerateCLSCompliantClassNames), func(host.Directives) transform.Transformer {
			return &transform.GenerateDefaultClassNames{Prefix: ClassNamePrefix}
		}).
		WithRebinder(transform.RebinderFunc(Rebind))
}

// Register adds the MvcView flavor to reg.
func Register(reg *transform.Registry, opts ...Option) error {
	return reg.Register(FlavorName,
		func() transform.Transformer { return NewViewTransformer(opts...) },
		transform.WithDescription("ASP.NET MVC Razor views"),
		transform.WithExtensions(".cshtml"),
	)
}

// Rebind installs the view parser and view code generator on h.
func Rebind(h *host.Host, _ host.Directives) error {
	if err := validateFullPath(h.FullPath); err != nil {
		return err
	}
	h.Parser = NewViewParser()
	h.CodeGenerator = NewViewCodeGenerator(h)
	h.CodeGenerator.SetGenerateLinePragmas(h.EnableLinePragmas)
	return nil
}

func validateFullPath(p string) error {
	switch {
	case strings.TrimSpace(p) == "":
		return &transform.ConfigurationError{Field: "FullPath", Message: "template path is empty"}
	case strings.ContainsRune(p, 0):
		return &transform.ConfigurationError{Field: "FullPath", Message: "template path contains NUL"}
	case strings.HasSuffix(p, "/") || strings.HasSuffix(p, "\\"):
		return &transform.ConfigurationError{Field: "FullPath", Message: fmt.Sprintf("%q is a directory", p)}
	case path.Base(strings.ReplaceAll(p, "\\", "/")) == "..":
		return &transform.ConfigurationError{Field: "FullPath", Message: fmt.Sprintf("%q is not a file", p)}
	}
	return nil
}
