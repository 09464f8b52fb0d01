package transform

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Constructor builds a fresh pipeline for one compilation.
type Constructor func() Transformer

type FlavorMetadata struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Extensions  []string  `json:"extensions"`
	AddedAt     time.Time `json:"added_at"`
}

type FlavorOption func(*FlavorMetadata)

func WithDescription(description string) FlavorOption {
	return func(meta *FlavorMetadata) {
		meta.Description = description
	}
}

// WithExtensions lists the template file extensions the flavor handles.
func WithExtensions(exts ...string) FlavorOption {
	return func(meta *FlavorMetadata) {
		meta.Extensions = exts
	}
}

// Registry maps flavor names to pipeline constructors. It is populated at start-up
// and read by concurrent compilations.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	metadata     map[string]FlavorMetadata
}

func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
		metadata:     make(map[string]FlavorMetadata),
	}
}

func (r *Registry) Register(name string, ctor Constructor, opts ...FlavorOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("flavor name cannot be empty")
	}
	if ctor == nil {
		return fmt.Errorf("flavor %q: constructor cannot be nil", name)
	}
	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("flavor %q already registered", name)
	}

	meta := FlavorMetadata{
		Name:       name,
		Extensions: []string{".cshtml"},
		AddedAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(&meta)
	}

	r.constructors[name] = ctor
	r.metadata[name] = meta
	return nil
}

// New returns a new pipeline for the named flavor.
func (r *Registry) New(name string) (Transformer, error) {
	r.mu.RLock()
	ctor, exists := r.constructors[name]
	r.mu.RUnlock()

	if !exists {
		return nil, &ConfigurationError{Field: DirectiveGenerator, Message: fmt.Sprintf("unknown flavor %q", name)}
	}
	return ctor(), nil
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.constructors[name]
	return exists
}

func (r *Registry) Describe(name string) (FlavorMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.metadata[name]
	return meta, exists
}

// Names returns the registered flavor names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
