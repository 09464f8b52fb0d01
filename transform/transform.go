// Package transform provides the code transformation pipeline applied to a
// template's generated code tree.
//
// A Transformer is initialized once against the generation context, before the
// template is parsed, and then transforms the code tree once, in place. An
// Aggregate is an ordered list of transformers that itself satisfies Transformer,
// so pipelines nest: flavors share a common prefix aggregate and diverge at the tail.
//
// Example usage:
//
//	pipeline := transform.NewAggregate("MyFlavor",
//		transform.NewCommonPrefix("razorgen", "1.0.0.0"),
//		&transform.SetBaseType{TypeName: "My.PageBase"},
//		&transform.MakeTypePartial{},
//	).WithRebinder(myRebinder)
//
//	if err := pipeline.Initialize(h, directives); err != nil { ... }
//	// parse and generate with h.Parser and h.CodeGenerator
//	if err := pipeline.Transform(unit); err != nil { ... }
package transform

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/cpcf/razorgen/codetree"
	"github.com/cpcf/razorgen/host"
)

// Transformer is a single mutation step over a generation context and code tree.
//
// Initialize is called exactly once, before the template is parsed. It may mutate
// the host but must not mutate directives. Transform is called exactly once, after
// Initialize, and mutates unit in place. Any error is fatal for the compilation.
type Transformer interface {
	Initialize(h *host.Host, directives host.Directives) error
	Transform(unit *codetree.Unit) error
}

// Named is implemented by transformers that report a stable name for logs and errors.
type Named interface {
	Name() string
}

// NameOf returns t's name, falling back to its dynamic type.
func NameOf(t Transformer) string {
	if n, ok := t.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", t)
}

// Rebinder swaps the parser and code generator of a host. It runs once, first,
// inside an Aggregate's Initialize.
type Rebinder interface {
	Rebind(h *host.Host, directives host.Directives) error
}

// RebinderFunc adapts a function to the Rebinder interface.
type RebinderFunc func(h *host.Host, directives host.Directives) error

func (f RebinderFunc) Rebind(h *host.Host, directives host.Directives) error {
	return f(h, directives)
}

// Predicate decides from the directive set whether a conditional unit is included.
// Predicates must be pure.
type Predicate func(directives host.Directives) bool

// Absent is true when key is not in the directive set.
func Absent(key string) Predicate {
	return func(d host.Directives) bool { return !d.Has(key) }
}

// Present is true when key is in the directive set, whatever its value.
func Present(key string) Predicate {
	return func(d host.Directives) bool { return d.Has(key) }
}

// Enabled is true when key is present with a true value.
func Enabled(key string) Predicate {
	return func(d host.Directives) bool { return d.Bool(key) }
}

type conditional struct {
	predicate Predicate
	build     func(host.Directives) Transformer
}

type lifecycle int

const (
	stateNew lifecycle = iota
	stateInitialized
	stateTransformed
	// stateFailed marks a pipeline whose Initialize returned an error.
	stateFailed
)

// Aggregate runs an ordered list of transformers. Conditional units registered
// with When are appended, in registration order, after the fixed units during
// Initialize; the list is frozen from then on.
type Aggregate struct {
	name         string
	units        []Transformer
	conditionals []conditional
	rebinder     Rebinder
	logger       *slog.Logger
	state        lifecycle
}

func NewAggregate(name string, units ...Transformer) *Aggregate {
	return &Aggregate{
		name:   name,
		units:  slices.Clone(units),
		logger: slog.Default(),
	}
}

// When registers a unit built from the directive set, included only if predicate holds.
func (a *Aggregate) When(predicate Predicate, build func(host.Directives) Transformer) *Aggregate {
	a.conditionals = append(a.conditionals, conditional{predicate: predicate, build: build})
	return a
}

// WithRebinder sets the hook run before any unit is initialized.
func (a *Aggregate) WithRebinder(r Rebinder) *Aggregate {
	a.rebinder = r
	return a
}

func (a *Aggregate) Name() string {
	return a.name
}

// Units returns the current unit list. After Initialize it is the order Transform uses.
func (a *Aggregate) Units() []Transformer {
	return slices.Clone(a.units)
}

// UnitNames returns the names of the current units in order.
func (a *Aggregate) UnitNames() []string {
	names := make([]string, len(a.units))
	for i, u := range a.units {
		names[i] = NameOf(u)
	}
	return names
}

func (a *Aggregate) Initialize(h *host.Host, directives host.Directives) error {
	if a.state != stateNew {
		return &ConfigurationError{Field: a.name, Message: "pipeline already initialized"}
	}
	if err := a.initialize(h, directives); err != nil {
		a.state = stateFailed
		return err
	}
	a.state = stateInitialized

	a.logger.Debug("pipeline initialized", "pipeline", a.name, "units", a.UnitNames())
	return nil
}

func (a *Aggregate) initialize(h *host.Host, directives host.Directives) error {
	if h == nil {
		return &ConfigurationError{Field: a.name, Message: "generation context is missing"}
	}
	if h.Logger != nil {
		a.logger = h.Logger
	}

	if a.rebinder != nil {
		if err := a.rebinder.Rebind(h, directives); err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				return err
			}
			return &ConfigurationError{Field: a.name, Message: "host rebind failed", Err: err}
		}
	}

	for _, c := range a.conditionals {
		if c.predicate(directives) {
			a.units = append(a.units, c.build(directives))
		}
	}

	for _, u := range a.units {
		if err := u.Initialize(h, maps.Clone(directives)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregate) Transform(unit *codetree.Unit) error {
	switch a.state {
	case stateNew:
		return &ConfigurationError{Field: a.name, Message: "transform called before initialize"}
	case stateTransformed:
		return &ConfigurationError{Field: a.name, Message: "pipeline already transformed"}
	case stateFailed:
		return &ConfigurationError{Field: a.name, Message: "transform called after a failed initialize"}
	}
	if unit == nil {
		return &TransformError{Unit: a.name, Precondition: "code tree is missing"}
	}
	a.state = stateTransformed

	for _, u := range a.units {
		if err := u.Transform(unit); err != nil {
			var tErr *TransformError
			var cfgErr *ConfigurationError
			if errors.As(err, &tErr) || errors.As(err, &cfgErr) {
				return err
			}
			return &TransformError{Unit: NameOf(u), Precondition: "transform failed", Err: err}
		}
	}
	return nil
}
