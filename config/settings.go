package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Failure modes accepted by Settings.FailureMode.
const (
	FailFast   = "fail-fast"
	FailAtEnd  = "fail-at-end"
	BestEffort = "best-effort"
)

// Settings is the project-level policy for a razorgen run. Per-template
// directives in a template's leading comment override Directives.
type Settings struct {
	// Flavor is used for templates without a Generator directive.
	Flavor      string            `yaml:"flavor" toml:"flavor"`
	Namespace   string            `yaml:"namespace" toml:"namespace"`
	LinePragmas bool              `yaml:"line_pragmas" toml:"line_pragmas"`
	Directives  map[string]string `yaml:"directives" toml:"directives"`
	Extensions  []string          `yaml:"extensions" toml:"extensions"`

	Generator GeneratorSettings `yaml:"generator" toml:"generator"`
	Output    OutputSettings    `yaml:"output" toml:"output"`

	Workers     int    `yaml:"workers" toml:"workers"`
	FailureMode string `yaml:"failure_mode" toml:"failure_mode"`
}

// GeneratorSettings names the tool recorded in GeneratedCodeAttribute.
type GeneratorSettings struct {
	Tool    string `yaml:"tool" toml:"tool"`
	Version string `yaml:"version" toml:"version"`
}

type OutputSettings struct {
	Dir string `yaml:"dir" toml:"dir"`
	// Suffix replaces the template extension, e.g. ".generated.cs".
	Suffix     string `yaml:"suffix" toml:"suffix"`
	LineEnding string `yaml:"line_ending" toml:"line_ending"`
	Header     bool   `yaml:"header" toml:"header"`
	// Manifest records generated files so outputs of deleted templates are
	// removed on the next full run.
	Manifest bool `yaml:"manifest" toml:"manifest"`
}

func Default() Settings {
	return Settings{
		Flavor:      "MvcView",
		Namespace:   "ASP",
		LinePragmas: true,
		Extensions:  []string{".cshtml"},
		Generator: GeneratorSettings{
			Tool:    "RazorGenerator",
			Version: "2.0.0.0",
		},
		Output: OutputSettings{
			Suffix:     ".generated.cs",
			LineEnding: "crlf",
			Header:     true,
			Manifest:   true,
		},
		Workers:     4,
		FailureMode: FailAtEnd,
	}
}

// Load reads settings from path over Default.
func Load(path string) (Settings, error) {
	s := Default()
	if err := LoadFile(path, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	var errs []error

	if strings.TrimSpace(s.Flavor) == "" {
		errs = append(errs, errors.New("flavor is required"))
	}
	if strings.TrimSpace(s.Namespace) == "" {
		errs = append(errs, errors.New("namespace is required"))
	}
	if len(s.Extensions) == 0 {
		errs = append(errs, errors.New("at least one template extension is required"))
	}
	for _, ext := range s.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("extension %q must start with a dot", ext))
		}
	}
	if s.Generator.Tool == "" || s.Generator.Version == "" {
		errs = append(errs, errors.New("generator tool and version are required"))
	}
	if s.Output.Suffix == "" {
		errs = append(errs, errors.New("output suffix is required"))
	}
	switch strings.ToLower(s.Output.LineEnding) {
	case "lf", "crlf":
	default:
		errs = append(errs, fmt.Errorf("line_ending must be lf or crlf, got %q", s.Output.LineEnding))
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", s.Workers))
	}
	switch s.FailureMode {
	case FailFast, FailAtEnd, BestEffort:
	default:
		errs = append(errs, fmt.Errorf("unknown failure_mode %q", s.FailureMode))
	}

	return errors.Join(errs...)
}

// Fingerprint identifies the settings that change generated output. Output
// location, manifest tracking, worker count and failure mode are excluded.
func (s *Settings) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "flavor=%s\nnamespace=%s\npragmas=%t\ntool=%s\nversion=%s\n",
		s.Flavor, s.Namespace, s.LinePragmas, s.Generator.Tool, s.Generator.Version)

	keys := make([]string, 0, len(s.Directives))
	for k := range s.Directives {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "directive.%s=%s\n", k, s.Directives[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HasExtension reports whether name ends in one of the template extensions.
func (s *Settings) HasExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range s.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
