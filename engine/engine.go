// Package engine drives template compilation: it resolves a template's flavor,
// runs the flavor's transformer pipeline around parsing and code generation,
// emits C# and post-processes it. GenerateDir does this for a whole project
// through a worker pool and writes the results.
package engine

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cpcf/razorgen/codetree"
	"github.com/cpcf/razorgen/config"
	"github.com/cpcf/razorgen/emit"
	"github.com/cpcf/razorgen/host"
	"github.com/cpcf/razorgen/metrics"
	"github.com/cpcf/razorgen/mvc"
	"github.com/cpcf/razorgen/postprocess"
	"github.com/cpcf/razorgen/processors"
	"github.com/cpcf/razorgen/razor"
	"github.com/cpcf/razorgen/transform"
	"github.com/cpcf/razorgen/webpages"
	"github.com/cpcf/razorgen/write"
)

// Stages reported in GenerationError.Stage.
const (
	StageDiscover    = "discover"
	StageRead        = "read"
	StageResolve     = "resolve"
	StageInitialize  = metrics.StageInitialize
	StageParse       = metrics.StageParse
	StageGenerate    = metrics.StageGenerate
	StageTransform   = metrics.StageTransform
	StageEmit        = metrics.StageEmit
	StagePostProcess = metrics.StagePostProcess
	StageWrite       = metrics.StageWrite
)

type Engine struct {
	logger         *slog.Logger
	failMode       FailureMode
	failModeSet    bool
	workers        int
	settings       config.Settings
	fingerprint    string
	registry       *transform.Registry
	recorder       metrics.Recorder
	cache          *ResultCache
	writer         write.Writer
	writeOptions   write.WriteOptions
	emitter        *emit.Emitter
	postprocessors *postprocess.Chain
	extra          []postprocess.Processor
}

type FailureMode int

const (
	FailFast FailureMode = iota
	FailAtEnd
	BestEffort
)

func (m FailureMode) String() string {
	switch m {
	case FailFast:
		return config.FailFast
	case FailAtEnd:
		return config.FailAtEnd
	case BestEffort:
		return config.BestEffort
	default:
		return fmt.Sprintf("FailureMode(%d)", int(m))
	}
}

// ParseFailureMode maps a settings value such as "fail-at-end" to a FailureMode.
func ParseFailureMode(s string) (FailureMode, error) {
	switch s {
	case config.FailFast:
		return FailFast, nil
	case config.FailAtEnd:
		return FailAtEnd, nil
	case config.BestEffort:
		return BestEffort, nil
	default:
		return FailFast, fmt.Errorf("unknown failure mode %q", s)
	}
}

// New creates an engine. Without WithSettings it uses config.Default; without
// WithRegistry it registers the MvcView and WebPage flavors. Settings that fail
// Validate are rejected.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:       slog.Default(),
		settings:     config.Default(),
		recorder:     metrics.NoopRecorder{},
		writer:       write.NewBaseWriter(),
		writeOptions: write.DefaultOptions(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if !e.failModeSet {
		mode, err := ParseFailureMode(e.settings.FailureMode)
		if err != nil {
			return nil, err
		}
		e.failMode = mode
	}
	if e.workers <= 0 {
		e.workers = e.settings.Workers
	}
	if e.registry == nil {
		reg, err := DefaultRegistry(e.settings)
		if err != nil {
			return nil, err
		}
		e.registry = reg
	}
	if e.emitter == nil {
		em, err := emit.New()
		if err != nil {
			return nil, err
		}
		e.emitter = em
	}

	chain, err := e.buildChain()
	if err != nil {
		return nil, err
	}
	e.postprocessors = chain
	e.fingerprint = e.settings.Fingerprint()

	return e, nil
}

// buildChain installs the processors the output settings ask for, then the ones
// added with AddPostProcessor. Line endings are normalised last.
func (e *Engine) buildChain() (*postprocess.Chain, error) {
	chain := postprocess.NewChain()
	if e.settings.Output.Header {
		chain.Add(processors.NewHeader(e.settings.Generator.Tool))
	}
	chain.Add(processors.NewTrimTrailingWhitespace())
	for _, p := range e.extra {
		chain.Add(p)
	}
	if e.settings.Output.LineEnding != "" {
		ending, err := processors.ParseLineEnding(e.settings.Output.LineEnding)
		if err != nil {
			return nil, err
		}
		chain.Add(processors.NewLineEndings(ending))
	}
	return chain, nil
}

// DefaultRegistry returns a registry holding the MvcView and WebPage flavors,
// configured with the generator tool and version from s.
func DefaultRegistry(s config.Settings) (*transform.Registry, error) {
	reg := transform.NewRegistry()
	if err := mvc.Register(reg, mvc.WithGeneratedCode(s.Generator.Tool, s.Generator.Version)); err != nil {
		return nil, err
	}
	if err := webpages.Register(reg, webpages.WithGeneratedCode(s.Generator.Tool, s.Generator.Version)); err != nil {
		return nil, err
	}
	return reg, nil
}

func (e *Engine) Registry() *transform.Registry {
	return e.registry
}

func (e *Engine) Settings() config.Settings {
	return e.settings
}

func (e *Engine) Cache() *ResultCache {
	return e.cache
}

// AddPostProcessor appends a processor that runs after all others.
// It must not be called while the engine is generating.
func (e *Engine) AddPostProcessor(processor postprocess.Processor) {
	e.postprocessors.Add(processor)
}

// AddPostProcessorFunc adds a function as a post-processor to the processing chain.
func (e *Engine) AddPostProcessorFunc(fn func(filePath string, content []byte) ([]byte, error)) {
	e.postprocessors.AddFunc(fn)
}

// OutputName maps a slash-separated template path to its generated file name,
// e.g. "Views/Home/Index.cshtml" to "Views/Home/Index.generated.cs".
func (e *Engine) OutputName(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel)) + e.settings.Output.Suffix
}

// CompileRequest describes one template to compile.
type CompileRequest struct {
	// Path is the template path recorded in line pragmas.
	Path string
	// ProjectRelativePath drives class names, virtual paths and web.config lookup.
	ProjectRelativePath string
	Source              string
	// ProjectFS is the project tree; it may be nil.
	ProjectFS fs.FS
}

type Result struct {
	Path       string
	Flavor     string
	ClassName  string
	Namespace  string
	Directives host.Directives
	Code       []byte
	Cached     bool
	Duration   time.Duration
}

// Compile turns one template into C# source.
//
// Directives from the template's leading comment are merged over the settings'
// directives, the template winning. The flavor comes from the Generator
// directive, falling back to the settings. The flavor's pipeline is initialized
// before the template is parsed; its Transform runs on the generated tree before
// emission.
func (e *Engine) Compile(req CompileRequest) (*Result, error) {
	start := time.Now()
	rel := req.ProjectRelativePath
	if rel == "" {
		rel = req.Path
	}

	var key CacheKey
	if e.cache != nil {
		key = NewCacheKey(rel, req.Source, e.fingerprint)
		if res, ok := e.cache.Get(key); ok {
			e.recorder.IncCacheLookup(true)
			e.recorder.IncCompileResult(res.Flavor, metrics.ResultCached)
			e.logger.Debug("Using cached compilation", "template", rel)
			return res, nil
		}
		e.recorder.IncCacheLookup(false)
	}

	logger := e.logger.With("compilation", uuid.NewString(), "template", rel)

	directives := host.Directives(razor.ExtractDirectives(req.Source)).Merge(e.settings.Directives)
	flavor := e.settings.Flavor
	if v, ok := directives.Get(transform.DirectiveGenerator); ok && v != "" {
		flavor = v
	}

	res, err := e.compile(logger, req, rel, flavor, directives)
	elapsed := time.Since(start)
	e.recorder.ObserveCompileDuration(flavor, elapsed)
	if err != nil {
		e.recorder.IncCompileResult(flavor, metrics.ResultFailed)
		logger.Debug("Compilation failed", "flavor", flavor, "error", err)
		return nil, err
	}
	e.recorder.IncCompileResult(flavor, metrics.ResultSuccess)

	res.Duration = elapsed
	if e.cache != nil {
		e.cache.Put(key, res)
	}
	logger.Debug("Compiled template", "flavor", flavor, "class", res.ClassName, "duration", elapsed)
	return res, nil
}

func (e *Engine) compile(logger *slog.Logger, req CompileRequest, rel, flavor string, directives host.Directives) (*Result, error) {
	fail := func(stage, message string, err error) error {
		return &GenerationError{Path: rel, Stage: stage, Message: message, Err: err}
	}

	pipeline, err := e.registry.New(flavor)
	if err != nil {
		return nil, fail(StageResolve, "failed to resolve flavor", err)
	}

	h := host.New(req.Path, rel,
		host.WithNamespace(e.settings.Namespace),
		host.WithLinePragmas(e.settings.LinePragmas),
		host.WithProjectFS(req.ProjectFS),
		host.WithLogger(logger),
	)

	if err := e.stage(StageInitialize, func() error { return pipeline.Initialize(h, directives) }); err != nil {
		return nil, fail(StageInitialize, "failed to initialize "+flavor, err)
	}

	var doc *razor.Document
	if err := e.stage(StageParse, func() (err error) {
		doc, err = h.Parser.Parse(req.Source)
		return err
	}); err != nil {
		return nil, fail(StageParse, "failed to parse template", err)
	}

	var unit *codetree.Unit
	if err := e.stage(StageGenerate, func() (err error) {
		unit, err = h.CodeGenerator.Generate(doc)
		return err
	}); err != nil {
		return nil, fail(StageGenerate, "failed to generate code", err)
	}

	if err := e.stage(StageTransform, func() error { return pipeline.Transform(unit) }); err != nil {
		return nil, fail(StageTransform, "failed to transform code", err)
	}

	var code []byte
	if err := e.stage(StageEmit, func() (err error) {
		code, err = e.emitter.Emit(unit)
		return err
	}); err != nil {
		return nil, fail(StageEmit, "failed to emit code", err)
	}

	if e.postprocessors.HasProcessors() {
		if err := e.stage(StagePostProcess, func() (err error) {
			code, err = e.postprocessors.Process(e.OutputName(rel), code)
			return err
		}); err != nil {
			return nil, fail(StagePostProcess, "post-processing failed", err)
		}
	}

	return &Result{
		Path:       rel,
		Flavor:     flavor,
		ClassName:  unit.Class.Name,
		Namespace:  unit.Namespace,
		Directives: directives,
		Code:       code,
	}, nil
}

func (e *Engine) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	e.recorder.ObserveStageDuration(name, time.Since(start))
	return err
}
