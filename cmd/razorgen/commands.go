package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cpcf/razorgen/config"
	"github.com/cpcf/razorgen/diagnose"
	"github.com/cpcf/razorgen/engine"
	"github.com/cpcf/razorgen/watch"
)

type GenerateCmd struct {
	Dir string `arg:"" optional:"" help:"Project directory." default:"." type:"existingdir"`
}

func (g *GenerateCmd) Run(cli *CLI) error {
	p, err := cli.openProject(g.Dir)
	if err != nil {
		return err
	}

	genErr := p.engine.GenerateDir(p.ctx, ".")
	if err := p.flushMetrics(); err != nil {
		return errors.Join(genErr, err)
	}
	return genErr
}

type WatchCmd struct {
	Dir      string        `arg:"" optional:"" help:"Project directory." default:"." type:"existingdir"`
	Debounce time.Duration `help:"Quiet period before regenerating." default:"500ms"`
}

func (w *WatchCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.run(ctx, cli)
}

func (w *WatchCmd) run(ctx context.Context, cli *CLI) error {
	cache := engine.NewResultCache()
	p, err := cli.openProject(w.Dir, engine.WithCache(cache))
	if err != nil {
		return err
	}
	logger := cli.activeLogger()

	if err := p.engine.GenerateDir(p.ctx, "."); err != nil {
		logger.Error("Initial generation failed", "error", err)
	}

	regenerate := func(_ context.Context, changed []string) error {
		defer func() {
			if err := p.flushMetrics(); err != nil {
				logger.Warn("Failed to write metrics", "error", err)
			}
		}()

		rels := relative(p.ctx.SourceRoot, changed)
		if touchesWebConfig(rels) {
			// Cache keys do not cover web.config.
			cache.Clear()
			return p.engine.GenerateDir(p.ctx, ".")
		}

		var templates, removed []string
		for _, rel := range rels {
			if _, err := os.Stat(filepath.Join(p.ctx.SourceRoot, filepath.FromSlash(rel))); err != nil {
				cache.Invalidate(rel)
				logger.Debug("Template removed", "template", rel)
				removed = append(removed, rel)
				continue
			}
			templates = append(templates, rel)
		}
		if len(removed) > 0 {
			if err := p.engine.RemoveTemplates(p.ctx, removed); err != nil {
				logger.Warn("Failed to remove stale outputs", "error", err)
			}
		}
		if len(templates) == 0 {
			return nil
		}
		return p.engine.GenerateFiles(p.ctx, templates)
	}

	watcher, err := watch.New(p.ctx.SourceRoot, regenerate,
		watch.WithDebounce(w.Debounce),
		watch.WithExtensions(p.settings.Extensions...),
		watch.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("Stopping watcher")
	return watcher.Stop()
}

func touchesWebConfig(rels []string) bool {
	for _, rel := range rels {
		if strings.EqualFold(filepath.Base(rel), "web.config") {
			return true
		}
	}
	return false
}

type CheckCmd struct {
	Dir    string `arg:"" optional:"" help:"Project directory." default:"." type:"existingdir"`
	Strict bool   `help:"Also warn about trailing whitespace."`
}

func (c *CheckCmd) Run(cli *CLI) error {
	p, err := cli.openProject(c.Dir)
	if err != nil {
		return err
	}

	checker := diagnose.NewChecker(p.engine, p.ctx, diagnose.WithStrict(c.Strict))
	report, err := checker.CheckDir(".")
	if err != nil {
		return err
	}

	out := cli.out()
	for _, d := range report.Diagnostics() {
		fmt.Fprint(out, d.FormatDetailed())
	}
	stats := report.Statistics()
	fmt.Fprintln(out, stats)

	if report.HasErrors() {
		return fmt.Errorf("%d template(s) failed to compile", stats.FailedTemplates)
	}
	return nil
}

type FlavorsCmd struct{}

func (f *FlavorsCmd) Run(cli *CLI) error {
	reg, err := engine.DefaultRegistry(config.Default())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEXTENSIONS\tDESCRIPTION")
	for _, name := range reg.Names() {
		meta, _ := reg.Describe(name)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, strings.Join(meta.Extensions, ","), meta.Description)
	}
	return tw.Flush()
}
