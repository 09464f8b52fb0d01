package diagnose

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Report collects the diagnostics of a check run.
type Report struct {
	mu          sync.RWMutex
	templates   int
	diagnostics []*Diagnostic
}

func NewReport() *Report {
	return &Report{}
}

// Add records the diagnostics found in one template.
func (r *Report) Add(diags ...*Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range diags {
		if d != nil {
			r.diagnostics = append(r.diagnostics, d)
		}
	}
}

func (r *Report) countTemplate() {
	r.mu.Lock()
	r.templates++
	r.mu.Unlock()
}

// Diagnostics returns the diagnostics ordered by template and position.
func (r *Report) Diagnostics() []*Diagnostic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	diags := make([]*Diagnostic, len(r.diagnostics))
	copy(diags, r.diagnostics)
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Template != b.Template {
			return a.Template < b.Template
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return diags
}

func (r *Report) ByTemplate(template string) []*Diagnostic {
	var filtered []*Diagnostic
	for _, d := range r.Diagnostics() {
		if d.Template == template {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func (r *Report) HasErrors() bool {
	return r.Statistics().Errors > 0
}

func (r *Report) Statistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{
		Templates: r.templates,
		ByStage:   make(map[string]int),
	}
	failed := make(map[string]bool)
	for _, d := range r.diagnostics {
		switch d.Severity {
		case SeverityError:
			stats.Errors++
			failed[d.Template] = true
			if d.Stage != "" {
				stats.ByStage[d.Stage]++
			}
		case SeverityWarning:
			stats.Warnings++
		}
	}
	stats.FailedTemplates = len(failed)
	return stats
}

type Statistics struct {
	Templates       int            `json:"templates"`
	FailedTemplates int            `json:"failed_templates"`
	Errors          int            `json:"errors"`
	Warnings        int            `json:"warnings"`
	ByStage         map[string]int `json:"by_stage"`
}

func (s Statistics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d template(s) checked, %d failed: %d error(s), %d warning(s)",
		s.Templates, s.FailedTemplates, s.Errors, s.Warnings)

	if len(s.ByStage) > 0 {
		stages := make([]string, 0, len(s.ByStage))
		for stage := range s.ByStage {
			stages = append(stages, stage)
		}
		sort.Strings(stages)

		parts := make([]string, len(stages))
		for i, stage := range stages {
			parts[i] = fmt.Sprintf("%s=%d", stage, s.ByStage[stage])
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	return b.String()
}
