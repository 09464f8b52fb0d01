package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/cpcf/razorgen/config"
	"github.com/cpcf/razorgen/engine"
	"github.com/cpcf/razorgen/metrics"
)

// settingsFiles are looked up in the project directory when --config is not given.
var settingsFiles = []string{"razorgen.yaml", "razorgen.yml", "razorgen.toml"}

type CLI struct {
	Config        string           `short:"c" help:"Settings file (YAML or TOML). Defaults to razorgen.{yaml,yml,toml} in the project directory." type:"path" env:"RAZORGEN_CONFIG"`
	Namespace     string           `help:"Namespace of generated classes." env:"RAZORGEN_NAMESPACE"`
	Flavor        string           `help:"Flavor for templates without a Generator directive." env:"RAZORGEN_FLAVOR"`
	NoLinePragmas bool             `name:"no-line-pragmas" help:"Do not emit #line pragmas."`
	NoManifest    bool             `name:"no-manifest" help:"Do not track outputs or remove those of deleted templates."`
	Out           string           `short:"o" help:"Output directory. Defaults to next to each template." type:"path" env:"RAZORGEN_OUT"`
	FailMode      string           `name:"fail-mode" help:"fail-fast, fail-at-end or best-effort." env:"RAZORGEN_FAIL_MODE"`
	Workers       int              `help:"Number of concurrent compilations." env:"RAZORGEN_WORKERS"`
	MetricsFile   string           `name:"metrics-file" help:"Write Prometheus metrics to this file after the run." type:"path" env:"RAZORGEN_METRICS_FILE"`
	Verbose       bool             `short:"v" help:"Enable verbose logging."`
	Version       kong.VersionFlag `name:"version" help:"Show version and exit."`

	Generate GenerateCmd `cmd:"" help:"Generate C# for every template in a project."`
	Watch    WatchCmd    `cmd:"" help:"Generate, then regenerate templates as they change."`
	Check    CheckCmd    `cmd:"" help:"Compile every template without writing output and report problems."`
	Flavors  FlavorsCmd  `cmd:"" help:"List the registered flavors."`

	stdout io.Writer
	logger *slog.Logger
}

// AfterApply installs the log handler once flags are parsed.
func (c *CLI) AfterApply() error {
	level := log.InfoLevel
	if c.Verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	c.logger = slog.New(handler)
	slog.SetDefault(c.logger)
	return nil
}

func (c *CLI) out() io.Writer {
	if c.stdout != nil {
		return c.stdout
	}
	return os.Stdout
}

func (c *CLI) activeLogger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Settings loads the project settings and applies flag overrides on top.
func (c *CLI) Settings(dir string) (config.Settings, error) {
	s := config.Default()

	path := c.Config
	if path == "" {
		for _, name := range settingsFiles {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Settings{}, err
		}
		s = loaded
		c.activeLogger().Debug("Loaded settings", "path", path)
	}

	if c.Namespace != "" {
		s.Namespace = c.Namespace
	}
	if c.Flavor != "" {
		s.Flavor = c.Flavor
	}
	if c.NoLinePragmas {
		s.LinePragmas = false
	}
	if c.NoManifest {
		s.Output.Manifest = false
	}
	if c.Out != "" {
		s.Output.Dir = c.Out
	}
	if c.FailMode != "" {
		s.FailureMode = c.FailMode
	}
	if c.Workers > 0 {
		s.Workers = c.Workers
	}

	if err := s.Validate(); err != nil {
		return config.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// project is one configured engine bound to a project directory.
type project struct {
	engine   *engine.Engine
	ctx      engine.Context
	settings config.Settings
	recorder *metrics.PrometheusRecorder
	metrics  string
}

func (c *CLI) openProject(dir string, opts ...engine.Option) (*project, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absDir)
	}

	s, err := c.Settings(absDir)
	if err != nil {
		return nil, err
	}

	p := &project{settings: s, metrics: c.MetricsFile}
	opts = append([]engine.Option{
		engine.WithSettings(s),
		engine.WithLogger(c.activeLogger()),
	}, opts...)
	if c.MetricsFile != "" {
		p.recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, engine.WithRecorder(p.recorder))
	}

	p.engine, err = engine.New(opts...)
	if err != nil {
		return nil, err
	}

	outDir := s.Output.Dir
	if outDir != "" && !filepath.IsAbs(outDir) {
		outDir = filepath.Join(absDir, outDir)
	}
	p.ctx = engine.NewContext(os.DirFS(absDir), absDir, outDir)
	return p, nil
}

// flushMetrics writes the metrics file when one was requested.
func (p *project) flushMetrics() error {
	if p.recorder == nil {
		return nil
	}
	if err := p.recorder.WriteTextfile(p.metrics); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// relative maps absolute paths under root to slash-separated project paths.
// Paths outside root are dropped.
func relative(root string, paths []string) []string {
	var rels []string
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		rels = append(rels, filepath.ToSlash(rel))
	}
	return rels
}
