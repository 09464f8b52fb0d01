package engine

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/cpcf/razorgen/state"
	"github.com/cpcf/razorgen/write"
)

// GenerateDir compiles every template under dir in ctx.TmplFS and writes the
// generated sources. Directories starting with a dot, bin, obj and node_modules
// are skipped. When the manifest is enabled, outputs of templates that no longer
// exist under dir are removed.
func (e *Engine) GenerateDir(ctx Context, dir string) error {
	if dir == "" {
		dir = "."
	}
	templates, err := e.Discover(ctx.TmplFS, dir)
	if err != nil {
		return &GenerationError{Path: dir, Stage: StageDiscover, Message: "failed to discover templates", Err: err}
	}
	if len(templates) == 0 {
		e.logger.Warn("No templates found", "dir", dir, "extensions", e.settings.Extensions)
	}

	genErr := e.GenerateFiles(ctx, templates)
	e.pruneOrphans(ctx, dir, templates)
	return genErr
}

// Discover lists the slash-separated paths of the templates under dir, in
// lexical order.
func (e *Engine) Discover(fsys fs.FS, dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}

	var templates []string
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && skipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if e.settings.HasExtension(p) {
			templates = append(templates, p)
		}
		return nil
	})
	return templates, err
}

func skipDir(name string) bool {
	switch strings.ToLower(name) {
	case "bin", "obj", "node_modules":
		return true
	}
	return strings.HasPrefix(name, ".")
}

// GenerateFiles compiles the given templates through the worker pool. Paths are
// slash-separated and relative to ctx.TmplFS.
//
// With FailFast the first failure is returned and queued templates are dropped.
// FailAtEnd generates everything it can and returns a *MultiError. BestEffort logs
// failures and returns nil. A template whose class has the qualified name of
// another template's class in the same call fails at the generate stage.
func (e *Engine) GenerateFiles(ctx Context, templates []string) error {
	if len(templates) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		e.recorder.ObserveRunDuration(time.Since(start))
	}()

	pool := NewWorkerPool(e.workers)
	pool.Start()
	defer pool.Stop()
	e.recorder.SetWorkers(pool.Size())

	results := make(chan TaskResult, len(templates))
	go func() {
		for _, p := range templates {
			task := &CompileTask{engine: e, ctx: ctx, path: p, result: results}
			if err := pool.Submit(task); err != nil {
				results <- TaskResult{TaskID: p, Error: err}
			}
		}
	}()

	var multiErr MultiError
	var written, unchanged, cached, failed int
	var succeeded []TaskResult
	for range templates {
		res := <-results
		if res.Error != nil {
			failed++
			switch e.failMode {
			case FailFast:
				e.recordOutputs(ctx, succeeded)
				return res.Error
			case FailAtEnd:
				multiErr.AddError(res.TaskID, res.Error)
			default:
				e.logger.Warn("Template generation failed", "template", res.TaskID, "error", res.Error)
			}
			continue
		}

		succeeded = append(succeeded, res)
		if res.Written {
			written++
		} else {
			unchanged++
		}
		if res.Cached {
			cached++
		}
	}
	e.recordOutputs(ctx, succeeded)

	for _, err := range classCollisions(succeeded) {
		failed++
		switch e.failMode {
		case FailFast:
			return err
		case FailAtEnd:
			multiErr.AddError(err.Path, err)
		default:
			e.logger.Warn("Template generation failed", "template", err.Path, "error", err)
		}
	}

	e.logger.Info("Generation complete",
		"templates", len(templates),
		"written", written,
		"unchanged", unchanged,
		"cached", cached,
		"failed", failed,
		"duration", time.Since(start))

	if multiErr.HasErrors() {
		return &multiErr
	}
	return nil
}

// classCollisions reports templates whose class has the same qualified name as
// the class of another template in results. The first template in path order
// keeps the name; each later one gets an error.
func classCollisions(results []TaskResult) []*GenerationError {
	sorted := slices.Clone(results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TaskID < sorted[j].TaskID })

	owners := make(map[string]string, len(sorted))
	var errs []*GenerationError
	for _, res := range sorted {
		name := res.ClassName
		if res.Namespace != "" {
			name = res.Namespace + "." + res.ClassName
		}
		if owner, taken := owners[name]; taken {
			errs = append(errs, &GenerationError{
				Path:    res.TaskID,
				Stage:   StageGenerate,
				Message: fmt.Sprintf("class %s is also generated from %s", name, owner),
			})
			continue
		}
		owners[name] = res.TaskID
	}
	return errs
}

type fileOutcome struct {
	outputName string
	outputPath string
	written    bool
	result     *Result
}

func (e *Engine) generateFile(ctx Context, rel string) (fileOutcome, error) {
	e.logger.Debug("Generating template", "path", rel)

	source, err := fs.ReadFile(ctx.TmplFS, rel)
	if err != nil {
		return fileOutcome{}, &GenerationError{Path: rel, Stage: StageRead, Message: "failed to read template", Err: err}
	}

	res, err := e.Compile(CompileRequest{
		Path:                ctx.FullPath(rel),
		ProjectRelativePath: rel,
		Source:              string(source),
		ProjectFS:           ctx.TmplFS,
	})
	if err != nil {
		return fileOutcome{}, err
	}

	outputName := e.OutputName(path.Clean(rel))
	outputPath := ctx.OutputPath(outputName)
	var wrote bool
	if err := e.stage(StageWrite, func() (err error) {
		wrote, err = write.WriteIfChanged(e.writer, outputPath, res.Code, e.writeOptions)
		return err
	}); err != nil {
		return fileOutcome{}, &GenerationError{Path: rel, Stage: StageWrite, Message: fmt.Sprintf("failed to write %s", outputPath), Err: err}
	}

	if wrote {
		e.logger.Info("Generated template", "template", rel, "output", outputPath, "class", res.ClassName)
	}
	return fileOutcome{outputName: outputName, outputPath: outputPath, written: wrote, result: res}, nil
}

// RemoveTemplates deletes the generated outputs of deleted templates. Outputs
// edited since they were generated are kept.
func (e *Engine) RemoveTemplates(ctx Context, templates []string) error {
	mm, manifest, err := e.loadManifest(ctx)
	if err != nil || mm == nil {
		return err
	}
	e.cleanup(mm, manifest, manifest.ForTemplates(templates...))
	return mm.SaveManifest(manifest)
}

func (e *Engine) loadManifest(ctx Context) (*state.ManifestManager, *state.Manifest, error) {
	root := ctx.OutputPath("")
	if !e.settings.Output.Manifest || root == "" {
		return nil, nil, nil
	}
	mm := state.NewManifestManager(root, e.settings.Generator.Tool)
	manifest, err := mm.LoadManifest()
	if err != nil {
		return nil, nil, err
	}
	return mm, manifest, nil
}

func (e *Engine) recordOutputs(ctx Context, results []TaskResult) {
	if len(results) == 0 {
		return
	}
	mm, manifest, err := e.loadManifest(ctx)
	if err != nil {
		e.logger.Warn("Failed to load manifest", "error", err)
		return
	}
	if mm == nil {
		return
	}

	for _, res := range results {
		manifest.Record(state.ManifestEntry{
			Output:    res.OutputName,
			Template:  res.TaskID,
			Hash:      res.Hash,
			Flavor:    res.Flavor,
			ClassName: res.ClassName,
		})
	}
	if err := mm.SaveManifest(manifest); err != nil {
		e.logger.Warn("Failed to save manifest", "path", mm.Path(), "error", err)
	}
}

// pruneOrphans removes outputs recorded for templates under dir that are not in
// live.
func (e *Engine) pruneOrphans(ctx Context, dir string, live []string) {
	mm, manifest, err := e.loadManifest(ctx)
	if err != nil {
		e.logger.Warn("Failed to load manifest", "error", err)
		return
	}
	if mm == nil {
		return
	}

	var orphans []state.ManifestEntry
	for _, entry := range manifest.Orphans(live) {
		if dir == "." || entry.Template == dir || strings.HasPrefix(entry.Template, strings.TrimSuffix(dir, "/")+"/") {
			orphans = append(orphans, entry)
		}
	}
	if len(orphans) == 0 {
		return
	}

	e.cleanup(mm, manifest, orphans)
	if err := mm.SaveManifest(manifest); err != nil {
		e.logger.Warn("Failed to save manifest", "path", mm.Path(), "error", err)
	}
}

func (e *Engine) cleanup(mm *state.ManifestManager, manifest *state.Manifest, entries []state.ManifestEntry) {
	summary := mm.Cleanup(manifest, entries)
	for _, r := range summary.Results {
		switch {
		case r.Error != nil:
			e.logger.Warn("Failed to remove stale output", "output", r.Entry.Output, "error", r.Error)
		case r.Action == state.CleanupActionDelete:
			e.logger.Info("Removed stale output", "output", r.Entry.Output, "template", r.Entry.Template)
		case r.Action == state.CleanupActionSkip:
			e.logger.Warn("Kept edited output of deleted template", "output", r.Entry.Output, "template", r.Entry.Template)
		}
	}
}
