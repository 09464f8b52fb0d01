// Package host holds the generation context shared by a template's parser, code
// generator and transformers.
//
// A Host is owned by exactly one compilation. Transformers and generators keep a
// non-owning reference and mutate its fields directly; nothing in this package
// locks, so two templates compiled concurrently must use two Hosts.
package host

import (
	"io/fs"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/cpcf/razorgen/razor"
)

// Directives maps generator directive names to values. Keys are case-sensitive.
// A Directives value is read-only for the duration of a compilation.
type Directives map[string]string

func (d Directives) Has(key string) bool {
	_, ok := d[key]
	return ok
}

func (d Directives) Get(key string) (string, bool) {
	v, ok := d[key]
	return v, ok
}

// Bool reports whether key is present with a value that parses as true.
func (d Directives) Bool(key string) bool {
	v, ok := d[key]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// Merge returns a new Directives holding base overridden by d.
func (d Directives) Merge(base map[string]string) Directives {
	merged := make(Directives, len(base)+len(d))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range d {
		merged[k] = v
	}
	return merged
}

type Host struct {
	DefaultClassName    string
	DefaultBaseClass    string
	DefaultNamespace    string
	FullPath            string
	ProjectRelativePath string
	EnableLinePragmas   bool

	// ProjectFS exposes the project tree for transformers that read project files.
	// It may be nil.
	ProjectFS fs.FS

	Parser        razor.Parser
	CodeGenerator razor.CodeGenerator

	Logger *slog.Logger
}

type Option func(*Host)

func WithNamespace(ns string) Option {
	return func(h *Host) {
		h.DefaultNamespace = ns
	}
}

func WithBaseClass(name string) Option {
	return func(h *Host) {
		h.DefaultBaseClass = name
	}
}

func WithLinePragmas(enabled bool) Option {
	return func(h *Host) {
		h.EnableLinePragmas = enabled
	}
}

func WithProjectFS(fsys fs.FS) Option {
	return func(h *Host) {
		h.ProjectFS = fsys
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.Logger = logger
	}
}

// New creates the context for the template at fullPath. projectRelativePath is the
// template's path relative to the project root and drives naming and virtual paths.
// The core parser and generator are installed until a flavor rebinds them.
func New(fullPath, projectRelativePath string, opts ...Option) *Host {
	h := &Host{
		FullPath:            fullPath,
		ProjectRelativePath: projectRelativePath,
		DefaultClassName:    razor.SanitizeClassName(projectRelativePath),
		DefaultNamespace:    "ASP",
		EnableLinePragmas:   true,
		Logger:              slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.Parser = razor.NewCoreParser()
	gen := razor.NewGenerator(h.DefaultClassName, h.DefaultBaseClass, h.DefaultNamespace, h.FullPath)
	gen.SetGenerateLinePragmas(h.EnableLinePragmas)
	h.CodeGenerator = gen

	return h
}

// SetLinePragmas updates the line pragma flag and propagates it to the installed
// code generator.
func (h *Host) SetLinePragmas(enabled bool) {
	h.EnableLinePragmas = enabled
	if h.CodeGenerator != nil {
		h.CodeGenerator.SetGenerateLinePragmas(enabled)
	}
}

// VirtualPath returns the app-relative virtual path of the template, e.g.
// "~/Views/Home/Index.cshtml".
func (h *Host) VirtualPath() string {
	p := strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(h.ProjectRelativePath, "\\", "/")), "/")
	return "~/" + p
}
