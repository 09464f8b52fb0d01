package transform

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/cpcf/razorgen/codetree"
	"github.com/cpcf/razorgen/host"
	"github.com/cpcf/razorgen/razor"
)

// DefaultModelType is the model type argument used when a template declares none.
const DefaultModelType = "dynamic"

const (
	GeneratedCodeAttribute           = "System.CodeDom.Compiler.GeneratedCodeAttribute"
	PageVirtualPathAttribute         = "System.Web.WebPages.PageVirtualPathAttribute"
	ExcludeFromCodeCoverageAttribute = "System.Diagnostics.CodeAnalysis.ExcludeFromCodeCoverageAttribute"
)

func requireClass(name string, unit *codetree.Unit) error {
	if unit.Class == nil {
		return &TransformError{Unit: name, Precondition: "generated class missing"}
	}
	return nil
}

// SetBaseType makes TypeName the context's default base class and, when the code
// generator declared no base type, the generated class's base type. With
// ModelPlaceholder the base type is parameterized by DefaultModelType.
type SetBaseType struct {
	TypeName         string
	ModelPlaceholder bool

	ref codetree.TypeReference
}

func (t *SetBaseType) Name() string { return "SetBaseType" }

func (t *SetBaseType) Initialize(h *host.Host, _ host.Directives) error {
	if t.TypeName == "" {
		return &ConfigurationError{Field: "DefaultBaseClass", Message: "base type name is empty"}
	}
	ref, err := codetree.ParseTypeReference(t.TypeName)
	if err != nil {
		return &ConfigurationError{Field: "DefaultBaseClass", Message: "invalid base type", Err: err}
	}
	if t.ModelPlaceholder && len(ref.Arguments) == 0 {
		ref.Arguments = []codetree.TypeReference{{Name: DefaultModelType}}
	}
	t.ref = ref
	h.DefaultBaseClass = t.TypeName
	return nil
}

func (t *SetBaseType) Transform(unit *codetree.Unit) error {
	if err := requireClass(t.Name(), unit); err != nil {
		return err
	}
	if len(unit.Class.BaseTypes) == 0 {
		unit.Class.SetBaseType(t.ref)
	}
	return nil
}

// SetImports adds Namespaces to the unit's imports. With ReplaceExisting the
// imports collected from the template are dropped first; otherwise they are kept
// and only missing namespaces are appended.
type SetImports struct {
	Namespaces      []string
	ReplaceExisting bool
}

func (t *SetImports) Name() string { return "SetImports" }

func (t *SetImports) Initialize(*host.Host, host.Directives) error {
	for _, ns := range t.Namespaces {
		if strings.TrimSpace(ns) == "" {
			return &ConfigurationError{Field: "Namespaces", Message: "empty namespace in import list"}
		}
	}
	return nil
}

func (t *SetImports) Transform(unit *codetree.Unit) error {
	if unit.Namespace == "" {
		return &TransformError{Unit: t.Name(), Precondition: "namespace root missing"}
	}
	if t.ReplaceExisting {
		unit.Imports = nil
	}
	for _, ns := range t.Namespaces {
		unit.AddImport(ns)
	}
	return nil
}

// AddGeneratedClassAttribute marks the class with GeneratedCodeAttribute(Tool, Version).
type AddGeneratedClassAttribute struct {
	Tool    string
	Version string
}

func (t *AddGeneratedClassAttribute) Name() string { return "AddGeneratedClassAttribute" }

func (t *AddGeneratedClassAttribute) Initialize(*host.Host, host.Directives) error {
	if t.Tool == "" || t.Version == "" {
		return &ConfigurationError{Field: "Generator", Message: "tool name and version are required"}
	}
	return nil
}

func (t *AddGeneratedClassAttribute) Transform(unit *codetree.Unit) error {
	if err := requireClass(t.Name(), unit); err != nil {
		return err
	}
	unit.Class.AddAttribute(codetree.Attribute{
		Name: GeneratedCodeAttribute,
		Arguments: []codetree.AttributeArgument{
			{Value: razor.CSharpString(t.Tool)},
			{Value: razor.CSharpString(t.Version)},
		},
	})
	return nil
}

// AddPageVirtualPathAttribute marks the class with the template's virtual path.
type AddPageVirtualPathAttribute struct {
	virtualPath string
}

func (t *AddPageVirtualPathAttribute) Name() string { return "AddPageVirtualPathAttribute" }

func (t *AddPageVirtualPathAttribute) Initialize(h *host.Host, _ host.Directives) error {
	if h.ProjectRelativePath == "" {
		return &ConfigurationError{Field: "ProjectRelativePath", Message: "template path is required for the virtual path attribute"}
	}
	t.virtualPath = h.VirtualPath()
	return nil
}

func (t *AddPageVirtualPathAttribute) Transform(unit *codetree.Unit) error {
	if err := requireClass(t.Name(), unit); err != nil {
		return err
	}
	unit.Class.AddAttribute(codetree.Attribute{
		Name:      PageVirtualPathAttribute,
		Arguments: []codetree.AttributeArgument{{Value: razor.CSharpString(t.virtualPath)}},
	})
	return nil
}

// RemoveLineHiddenPragmas strips every #line hidden marker. Other pragma kinds stay.
type RemoveLineHiddenPragmas struct {
	logger *slog.Logger
}

func (t *RemoveLineHiddenPragmas) Name() string { return "RemoveLineHiddenPragmas" }

func (t *RemoveLineHiddenPragmas) Initialize(h *host.Host, _ host.Directives) error {
	t.logger = h.Logger
	return nil
}

func (t *RemoveLineHiddenPragmas) Transform(unit *codetree.Unit) error {
	if err := requireClass(t.Name(), unit); err != nil {
		return err
	}
	n := unit.RemovePragmas(codetree.PragmaHidden)
	if t.logger != nil {
		t.logger.Debug("removed hidden line pragmas", "count", n)
	}
	return nil
}

// MakeTypePartial declares the generated class partial. It expects the base type
// to be final, so it belongs after every unit that touches the class declaration.
type MakeTypePartial struct{}

func (t *MakeTypePartial) Name() string { return "MakeTypePartial" }

func (t *MakeTypePartial) Initialize(*host.Host, host.Directives) error { return nil }

func (t *MakeTypePartial) Transform(unit *codetree.Unit) error {
	if err := requireClass(t.Name(), unit); err != nil {
		return err
	}
	if len(unit.Class.BaseTypes) == 0 {
		return &TransformError{Unit: t.Name(), Precondition: "base type not set"}
	}
	unit.Class.Partial = true
	return nil
}

// GenerateDefaultClassNames names the class after the template's project-relative
// path, prefixed with Prefix, e.g. "_Page_Views_Home_Index_cshtml". The name is
// published to the context at Initialize so the code generator uses it too.
type GenerateDefaultClassNames struct {
	Prefix string

	className string
}

func (t *GenerateDefaultClassNames) Name() string { return "GenerateDefaultClassNames" }

func (t *GenerateDefaultClassNames) Initialize(h *host.Host, _ host.Directives) error {
	if h.ProjectRelativePath == "" {
		return &ConfigurationError{Field: "ProjectRelativePath", Message: "template path is required to derive the class name"}
	}
	t.className = t.Prefix + razor.TransliteratePath(h.ProjectRelativePath)
	h.DefaultClassName = t.className
	return nil
}

func (t *GenerateDefaultClassNames) Transform(unit *codetree.Unit) error {
	if err := requireClass(t.Name(), unit); err != nil {
		return err
	}
	old := unit.Class.Name
	unit.Class.Name = t.className
	for _, m := range unit.Class.Members {
		if m.Kind == codetree.MemberConstructor && m.Name == old {
			m.Name = t.className
		}
	}
	return nil
}

// ClassName returns the name computed at Initialize.
func (t *GenerateDefaultClassNames) ClassName() string {
	return t.className
}

// SetNamespace overrides the namespace of the generated class.
type SetNamespace struct {
	Namespace string
}

func (t *SetNamespace) Name() string { return "SetNamespace" }

func (t *SetNamespace) Initialize(h *host.Host, _ host.Directives) error {
	if !isQualifiedName(t.Namespace) {
		return &ConfigurationError{Field: DirectiveNamespace, Message: fmt.Sprintf("invalid namespace %q", t.Namespace)}
	}
	h.DefaultNamespace = t.Namespace
	return nil
}

func (t *SetNamespace) Transform(unit *codetree.Unit) error {
	unit.Namespace = t.Namespace
	return nil
}

// DisableLinePragmas turns off #line generation for the template.
type DisableLinePragmas struct{}

func (t *DisableLinePragmas) Name() string { return "DisableLinePragmas" }

func (t *DisableLinePragmas) Initialize(h *host.Host, _ host.Directives) error {
	h.SetLinePragmas(false)
	return nil
}

func (t *DisableLinePragmas) Transform(*codetree.Unit) error { return nil }

type ExcludeFromCodeCoverage struct{}

func (t *ExcludeFromCodeCoverage) Name() string { return "ExcludeFromCodeCoverage" }

func (t *ExcludeFromCodeCoverage) Initialize(*host.Host, host.Directives) error { return nil }

func (t *ExcludeFromCodeCoverage) Transform(unit *codetree.Unit) error {
	if err := requireClass(t.Name(), unit); err != nil {
		return err
	}
	unit.Class.AddAttribute(codetree.Attribute{Name: ExcludeFromCodeCoverageAttribute})
	return nil
}

// SetTypeVisibility sets the access modifier of the class: public or internal.
type SetTypeVisibility struct {
	Visibility string
}

func (t *SetTypeVisibility) Name() string { return "SetTypeVisibility" }

func (t *SetTypeVisibility) Initialize(*host.Host, host.Directives) error {
	switch strings.ToLower(t.Visibility) {
	case "public", "internal":
		t.Visibility = strings.ToLower(t.Visibility)
		return nil
	}
	return &ConfigurationError{Field: DirectiveTypeVisibility, Message: fmt.Sprintf("unsupported visibility %q", t.Visibility)}
}

func (t *SetTypeVisibility) Transform(unit *codetree.Unit) error {
	if err := requireClass(t.Name(), unit); err != nil {
		return err
	}
	unit.Class.Visibility = t.Visibility
	return nil
}

func isQualifiedName(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			if r == '_' || unicode.IsLetter(r) || i > 0 && unicode.IsDigit(r) {
				continue
			}
			return false
		}
	}
	return true
}
