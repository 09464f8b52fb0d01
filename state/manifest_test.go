package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOutput(t *testing.T, root, name, content string) ManifestEntry {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return ManifestEntry{Output: name, Hash: HashContent([]byte(content))}
}

func TestManifestRoundTrip(t *testing.T) {
	root := t.TempDir()
	mm := NewManifestManager(root, "razorgen")

	m, err := mm.LoadManifest()
	require.NoError(t, err)
	assert.Empty(t, m.Entries)
	assert.Equal(t, ManifestVersion, m.Version)
	assert.Equal(t, "razorgen", m.Generator)

	m.Record(ManifestEntry{Output: "Views/Index.generated.cs", Template: "Views/Index.cshtml", Hash: "abc", Flavor: "MvcView"})
	m.Record(ManifestEntry{Output: "About.generated.cs", Template: "About.cshtml", Hash: "def"})
	require.NoError(t, mm.SaveManifest(m))

	_, err = os.Stat(filepath.Join(root, ManifestName))
	require.NoError(t, err)

	loaded, err := mm.LoadManifest()
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 2)
	entry, ok := loaded.Entry("Views/Index.generated.cs")
	require.True(t, ok)
	assert.Equal(t, "MvcView", entry.Flavor)
	assert.False(t, entry.Generated.IsZero())

	list := loaded.List()
	assert.Equal(t, "About.generated.cs", list[0].Output)
}

func TestLoadManifestVersionMismatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ManifestName), []byte(`{"version":"0.1","entries":{"x":{"output":"x"}}}`), 0o644))

	m, err := NewManifestManager(root, "razorgen").LoadManifest()
	require.NoError(t, err)
	assert.Empty(t, m.Entries)
	assert.Equal(t, ManifestVersion, m.Version)
}

func TestLoadManifestCorrupt(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ManifestName), []byte("{"), 0o644))

	_, err := NewManifestManager(root, "razorgen").LoadManifest()
	assert.Error(t, err)
}

func TestOrphansAndForTemplates(t *testing.T) {
	m := &Manifest{}
	m.Record(ManifestEntry{Output: "A.generated.cs", Template: "A.cshtml"})
	m.Record(ManifestEntry{Output: "B.generated.cs", Template: "B.cshtml"})
	m.Record(ManifestEntry{Output: "C.generated.cs", Template: "C.cshtml"})

	orphans := m.Orphans([]string{"A.cshtml", "C.cshtml"})
	require.Len(t, orphans, 1)
	assert.Equal(t, "B.generated.cs", orphans[0].Output)

	matched := m.ForTemplates("C.cshtml", "missing.cshtml")
	require.Len(t, matched, 1)
	assert.Equal(t, "C.generated.cs", matched[0].Output)
}

func TestCleanup(t *testing.T) {
	root := t.TempDir()
	mm := NewManifestManager(root, "razorgen")
	m, err := mm.LoadManifest()
	require.NoError(t, err)

	untouched := writeOutput(t, root, "Views/Old.generated.cs", "class Old {}")
	untouched.Template = "Views/Old.cshtml"
	edited := writeOutput(t, root, "Views/Edited.generated.cs", "class Edited {}")
	edited.Template = "Views/Edited.cshtml"
	gone := ManifestEntry{Output: "Views/Gone.generated.cs", Template: "Views/Gone.cshtml", Hash: "x"}
	for _, e := range []ManifestEntry{untouched, edited, gone} {
		m.Record(e)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "Views", "Edited.generated.cs"), []byte("class Edited { int x; }"), 0o644))

	summary := mm.Cleanup(m, m.List())
	assert.Equal(t, 1, summary.FilesDeleted)
	assert.Equal(t, 1, summary.FilesSkipped)
	assert.Equal(t, 0, summary.Errors)
	assert.Len(t, summary.Results, 3)

	_, err = os.Stat(filepath.Join(root, "Views", "Old.generated.cs"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "Views", "Edited.generated.cs"))
	assert.NoError(t, err)

	_, ok := m.Entry("Views/Edited.generated.cs")
	assert.True(t, ok, "edited outputs stay tracked")
	assert.Len(t, m.Entries, 1)
}

func TestCleanupActionString(t *testing.T) {
	assert.Equal(t, "delete", CleanupActionDelete.String())
	assert.Equal(t, "skip", CleanupActionSkip.String())
	assert.Equal(t, "forget", CleanupActionForget.String())
	assert.Equal(t, "unknown", CleanupAction(42).String())
}
