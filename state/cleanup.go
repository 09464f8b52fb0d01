package state

import (
	"fmt"
	"os"
	"path/filepath"
)

type CleanupAction int

const (
	CleanupActionDelete CleanupAction = iota
	// CleanupActionSkip keeps a file that was edited after it was generated.
	CleanupActionSkip
	// CleanupActionForget drops the entry of a file that no longer exists.
	CleanupActionForget
)

func (ca CleanupAction) String() string {
	switch ca {
	case CleanupActionDelete:
		return "delete"
	case CleanupActionSkip:
		return "skip"
	case CleanupActionForget:
		return "forget"
	default:
		return "unknown"
	}
}

type CleanupResult struct {
	Action CleanupAction `json:"action"`
	Entry  ManifestEntry `json:"entry"`
	Error  error         `json:"-"`
}

type CleanupSummary struct {
	FilesDeleted int             `json:"files_deleted"`
	FilesSkipped int             `json:"files_skipped"`
	Errors       int             `json:"errors"`
	Results      []CleanupResult `json:"results"`
}

// Cleanup removes the generated files of entries and drops the entries from
// manifest. A file whose content no longer matches the recorded hash is kept and
// stays in the manifest. Entries whose file is already gone are dropped.
func (mm *ManifestManager) Cleanup(manifest *Manifest, entries []ManifestEntry) *CleanupSummary {
	summary := &CleanupSummary{}
	for _, entry := range entries {
		result := mm.cleanupEntry(manifest, entry)
		switch {
		case result.Error != nil:
			summary.Errors++
		case result.Action == CleanupActionDelete:
			summary.FilesDeleted++
		case result.Action == CleanupActionSkip:
			summary.FilesSkipped++
		}
		summary.Results = append(summary.Results, result)
	}
	return summary
}

func (mm *ManifestManager) cleanupEntry(manifest *Manifest, entry ManifestEntry) CleanupResult {
	fullPath := filepath.Join(mm.outputRoot, filepath.FromSlash(entry.Output))

	content, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		manifest.Remove(entry.Output)
		return CleanupResult{Action: CleanupActionForget, Entry: entry}
	}
	if err != nil {
		return CleanupResult{Action: CleanupActionSkip, Entry: entry, Error: fmt.Errorf("failed to read %s: %w", fullPath, err)}
	}

	if HashContent(content) != entry.Hash {
		return CleanupResult{Action: CleanupActionSkip, Entry: entry}
	}

	if err := os.Remove(fullPath); err != nil {
		return CleanupResult{Action: CleanupActionDelete, Entry: entry, Error: fmt.Errorf("failed to delete %s: %w", fullPath, err)}
	}
	manifest.Remove(entry.Output)
	return CleanupResult{Action: CleanupActionDelete, Entry: entry}
}
