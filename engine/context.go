package engine

import (
	"io/fs"
	"path/filepath"
)

// Context locates a project for directory generation. TmplFS is rooted at the
// project directory and also serves as the project tree that transformers read,
// e.g. for web.config lookups.
type Context struct {
	TmplFS fs.FS
	// SourceRoot is the on-disk project directory. It prefixes template paths in
	// line pragmas and is the default output root.
	SourceRoot string
	OutputRoot string
}

func NewContext(tmplFS fs.FS, sourceRoot, outputRoot string) Context {
	return Context{
		TmplFS:     tmplFS,
		SourceRoot: sourceRoot,
		OutputRoot: outputRoot,
	}
}

// FullPath returns the path of the template at rel as seen by the compiler.
func (c Context) FullPath(rel string) string {
	if c.SourceRoot == "" {
		return filepath.FromSlash(rel)
	}
	return filepath.Join(c.SourceRoot, filepath.FromSlash(rel))
}

// OutputPath places a slash-separated output name under the output root, or
// under the source root when no output root is set.
func (c Context) OutputPath(name string) string {
	root := c.OutputRoot
	if root == "" {
		root = c.SourceRoot
	}
	return filepath.Join(root, filepath.FromSlash(name))
}
