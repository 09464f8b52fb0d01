package transform

import "github.com/cpcf/razorgen/host"

// Directive names understood by the built-in transformers.
const (
	DirectiveGenerator                      = "Generator"
	DirectiveNamespace                      = "Namespace"
	DirectiveDisableLinePragmas             = "DisableLinePragmas"
	DirectiveExcludeFromCodeCoverage        = "ExcludeFromCodeCoverage"
	DirectiveTypeVisibility                 = "TypeVisibility"
	DirectiveGenerateCLSCompliantClassNames = "GenerateCLSCompliantClassNames"
)

// NewDirectivesBasedTransformers returns the aggregate of units driven purely by
// template directives. Unknown directives are ignored.
func NewDirectivesBasedTransformers() *Aggregate {
	return NewAggregate("DirectivesBasedTransformers").
		When(Present(DirectiveNamespace), func(d host.Directives) Transformer {
			return &SetNamespace{Namespace: d[DirectiveNamespace]}
		}).
		When(Enabled(DirectiveDisableLinePragmas), func(host.Directives) Transformer {
			return &DisableLinePragmas{}
		}).
		When(Enabled(DirectiveExcludeFromCodeCoverage), func(host.Directives) Transformer {
			return &ExcludeFromCodeCoverage{}
		}).
		When(Present(DirectiveTypeVisibility), func(d host.Directives) Transformer {
			return &SetTypeVisibility{Visibility: d[DirectiveTypeVisibility]}
		})
}

// NewCommonPrefix returns the units every web flavor starts with: directive
// handling, the generated-code attribute and the page virtual path attribute.
func NewCommonPrefix(tool, version string) *Aggregate {
	return NewAggregate("CommonPrefix",
		NewDirectivesBasedTransformers(),
		&AddGeneratedClassAttribute{Tool: tool, Version: version},
		&AddPageVirtualPathAttribute{},
	)
}
