// Package codetree provides the mutable in-memory representation of a generated class.
//
// A Unit is produced by a code generator for a single template, mutated in place by
// the transformers of a pipeline, and finally handed to an emitter. A Unit is owned by
// one compilation and is never shared or reused after emission.
package codetree

import (
	"fmt"
	"slices"
	"strings"
)

// TypeReference names a type, optionally with generic arguments.
type TypeReference struct {
	Name      string
	Arguments []TypeReference
}

// NewTypeReference builds a reference to name with the given simple type arguments.
func NewTypeReference(name string, args ...string) TypeReference {
	ref := TypeReference{Name: name}
	for _, arg := range args {
		ref.Arguments = append(ref.Arguments, TypeReference{Name: arg})
	}
	return ref
}

// String renders the reference in C# generic syntax, e.g. "WebViewPage<dynamic>".
func (t TypeReference) String() string {
	if len(t.Arguments) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Arguments))
	for i, arg := range t.Arguments {
		args[i] = arg.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// IsZero reports whether the reference names no type.
func (t TypeReference) IsZero() bool {
	return t.Name == "" && len(t.Arguments) == 0
}

// ParseTypeReference parses a possibly generic type name such as
// "System.Collections.Generic.Dictionary<string, List<int>>".
func ParseTypeReference(s string) (TypeReference, error) {
	p := typeParser{input: s}
	ref, err := p.parse()
	if err != nil {
		return TypeReference{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return TypeReference{}, fmt.Errorf("unexpected %q at offset %d in type %q", p.input[p.pos:], p.pos, s)
	}
	return ref, nil
}

type typeParser struct {
	input string
	pos   int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) parse() (TypeReference, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && !strings.ContainsRune("<>, ", rune(p.input[p.pos])) {
		p.pos++
	}
	name := p.input[start:p.pos]
	if name == "" {
		return TypeReference{}, fmt.Errorf("missing type name at offset %d in %q", start, p.input)
	}
	ref := TypeReference{Name: name}

	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != '<' {
		return ref, nil
	}
	p.pos++

	for {
		arg, err := p.parse()
		if err != nil {
			return TypeReference{}, err
		}
		ref.Arguments = append(ref.Arguments, arg)

		p.skipSpace()
		if p.pos >= len(p.input) {
			return TypeReference{}, fmt.Errorf("unterminated type arguments in %q", p.input)
		}
		switch p.input[p.pos] {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return ref, nil
		default:
			return TypeReference{}, fmt.Errorf("unexpected %q at offset %d in %q", p.input[p.pos], p.pos, p.input)
		}
	}
}

// AttributeArgument is one argument of an attribute. Value is a literal expression
// emitted verbatim; Name is empty for positional arguments.
type AttributeArgument struct {
	Name  string
	Value string
}

type Attribute struct {
	Name      string
	Arguments []AttributeArgument
}

type MemberKind int

const (
	MemberSnippet MemberKind = iota
	MemberConstructor
	MemberMethod
)

func (k MemberKind) String() string {
	switch k {
	case MemberSnippet:
		return "snippet"
	case MemberConstructor:
		return "constructor"
	case MemberMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Member is a class member. Snippet members are emitted at class level as their
// Body statements; constructors and methods wrap Body in a declaration.
type Member struct {
	Kind      MemberKind
	Name      string
	Type      TypeReference
	Modifiers []string
	Body      []Statement
}

type Class struct {
	Name       string
	Visibility string
	BaseTypes  []TypeReference
	Attributes []Attribute
	Partial    bool
	Members    []*Member
}

// SetBaseType replaces every declared base type with ref.
func (c *Class) SetBaseType(ref TypeReference) {
	c.BaseTypes = []TypeReference{ref}
}

// BaseType returns the first declared base type, if any.
func (c *Class) BaseType() (TypeReference, bool) {
	if len(c.BaseTypes) == 0 {
		return TypeReference{}, false
	}
	return c.BaseTypes[0], true
}

func (c *Class) HasAttribute(name string) bool {
	return slices.ContainsFunc(c.Attributes, func(a Attribute) bool {
		return a.Name == name
	})
}

// AddAttribute appends attr unless an attribute of the same name is already declared.
// It reports whether the attribute was added.
func (c *Class) AddAttribute(attr Attribute) bool {
	if c.HasAttribute(attr.Name) {
		return false
	}
	c.Attributes = append(c.Attributes, attr)
	return true
}

// Method returns the first method member named name.
func (c *Class) Method(name string) *Member {
	for _, m := range c.Members {
		if m.Kind == MemberMethod && m.Name == name {
			return m
		}
	}
	return nil
}

// Unit is the generated compile unit: one namespace, its imports and one class.
type Unit struct {
	Namespace string
	Imports   []string
	Class     *Class
}

func (u *Unit) HasImport(ns string) bool {
	return slices.Contains(u.Imports, ns)
}

// AddImport appends ns unless it is already imported.
func (u *Unit) AddImport(ns string) bool {
	if ns == "" || u.HasImport(ns) {
		return false
	}
	u.Imports = append(u.Imports, ns)
	return true
}
