// Package state records which files razorgen generated from which templates, so
// outputs of deleted templates can be removed safely.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	ManifestVersion = "1.0"
	ManifestName    = ".razorgen.manifest.json"
)

type ManifestEntry struct {
	// Output is the slash-separated path of the generated file, relative to the
	// output root.
	Output    string    `json:"output"`
	Template  string    `json:"template"`
	Hash      string    `json:"hash"`
	Flavor    string    `json:"flavor,omitempty"`
	ClassName string    `json:"class_name,omitempty"`
	Generated time.Time `json:"generated"`
}

type Manifest struct {
	Version   string                   `json:"version"`
	Generated time.Time                `json:"generated"`
	Generator string                   `json:"generator"`
	Entries   map[string]ManifestEntry `json:"entries"`
}

// Record adds or replaces the entry for e.Output.
func (m *Manifest) Record(e ManifestEntry) {
	if m.Entries == nil {
		m.Entries = make(map[string]ManifestEntry)
	}
	if e.Generated.IsZero() {
		e.Generated = time.Now()
	}
	m.Entries[e.Output] = e
	m.Generated = e.Generated
}

func (m *Manifest) Remove(output string) {
	delete(m.Entries, output)
}

func (m *Manifest) Entry(output string) (ManifestEntry, bool) {
	e, ok := m.Entries[output]
	return e, ok
}

// List returns the entries sorted by output path.
func (m *Manifest) List() []ManifestEntry {
	entries := make([]ManifestEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Output < entries[j].Output })
	return entries
}

// ForTemplates returns the entries generated from any of templates.
func (m *Manifest) ForTemplates(templates ...string) []ManifestEntry {
	want := make(map[string]bool, len(templates))
	for _, t := range templates {
		want[t] = true
	}
	var entries []ManifestEntry
	for _, e := range m.List() {
		if want[e.Template] {
			entries = append(entries, e)
		}
	}
	return entries
}

// Orphans returns the entries whose template is not in live.
func (m *Manifest) Orphans(live []string) []ManifestEntry {
	keep := make(map[string]bool, len(live))
	for _, t := range live {
		keep[t] = true
	}
	var orphans []ManifestEntry
	for _, e := range m.List() {
		if !keep[e.Template] {
			orphans = append(orphans, e)
		}
	}
	return orphans
}

func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ManifestManager loads and saves the manifest kept in an output root.
type ManifestManager struct {
	outputRoot   string
	manifestPath string
	generator    string
}

func NewManifestManager(outputRoot, generator string) *ManifestManager {
	return &ManifestManager{
		outputRoot:   outputRoot,
		manifestPath: filepath.Join(outputRoot, ManifestName),
		generator:    generator,
	}
}

func (mm *ManifestManager) Path() string {
	return mm.manifestPath
}

func (mm *ManifestManager) OutputRoot() string {
	return mm.outputRoot
}

// LoadManifest returns the stored manifest, or an empty one when none exists or
// the stored one has another version.
func (mm *ManifestManager) LoadManifest() (*Manifest, error) {
	data, err := os.ReadFile(mm.manifestPath)
	if os.IsNotExist(err) {
		return mm.createEmptyManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if manifest.Version != ManifestVersion {
		return mm.createEmptyManifest(), nil
	}
	if manifest.Entries == nil {
		manifest.Entries = make(map[string]ManifestEntry)
	}
	return &manifest, nil
}

func (mm *ManifestManager) SaveManifest(manifest *Manifest) error {
	if err := os.MkdirAll(mm.outputRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	tmpPath := mm.manifestPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary manifest file: %w", err)
	}
	if err := os.Rename(tmpPath, mm.manifestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move manifest file: %w", err)
	}
	return nil
}

func (mm *ManifestManager) createEmptyManifest() *Manifest {
	return &Manifest{
		Version:   ManifestVersion,
		Generated: time.Now(),
		Generator: mm.generator,
		Entries:   make(map[string]ManifestEntry),
	}
}
