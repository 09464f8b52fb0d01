// Package write stores generated files on disk.
package write

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Writer interface {
	Write(path string, content []byte, options WriteOptions) error
	NeedsWrite(path string, content []byte) (bool, error)
}

type WriteOptions struct {
	CreateDirs bool
	Backup     bool
	BackupDir  string
	Overwrite  bool
	Atomic     bool
}

// DefaultOptions are the options used for generated sources: missing directories
// are created and existing files are replaced atomically.
func DefaultOptions() WriteOptions {
	return WriteOptions{CreateDirs: true, Overwrite: true, Atomic: true}
}

type BaseWriter struct{}

func NewBaseWriter() *BaseWriter {
	return &BaseWriter{}
}

func (bw *BaseWriter) Write(path string, content []byte, options WriteOptions) error {
	if options.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}
	}

	if options.Backup {
		if err := bw.createBackup(path, options.BackupDir); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	if options.Atomic {
		if !options.Overwrite {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("file already exists and overwrite is false: %s", path)
			}
		}
		return bw.atomicWrite(path, content)
	}

	return bw.directWrite(path, content, options.Overwrite)
}

// NeedsWrite reports whether path is missing or holds different content.
func (bw *BaseWriter) NeedsWrite(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}

	return !bytes.Equal(existing, content), nil
}

// WriteIfChanged writes content only when it differs from what is on disk, so
// unchanged outputs keep their modification time. It reports whether the file
// was written.
func WriteIfChanged(w Writer, path string, content []byte, options WriteOptions) (bool, error) {
	needs, err := w.NeedsWrite(path, content)
	if err != nil {
		return false, fmt.Errorf("failed to compare %s: %w", path, err)
	}
	if !needs {
		return false, nil
	}
	if err := w.Write(path, content, options); err != nil {
		return false, err
	}
	return true, nil
}

func (bw *BaseWriter) createBackup(path, backupDir string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if backupDir == "" {
		backupDir = filepath.Dir(path)
	}

	backupPath := filepath.Join(backupDir, filepath.Base(path)+".bak")

	input, err := os.Open(path)
	if err != nil {
		return err
	}
	defer input.Close()

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return err
	}

	output, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer output.Close()

	_, err = io.Copy(output, input)
	return err
}

// atomicWrite writes to a temporary file in the target directory and renames it
// over path, so concurrent readers never observe a partial file.
func (bw *BaseWriter) atomicWrite(path string, content []byte) error {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tempPath := file.Name()

	if _, err := file.Write(content); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	if err := os.Chmod(tempPath, 0o644); err != nil {
		os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}

func (bw *BaseWriter) directWrite(path string, content []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file already exists and overwrite is false: %s", path)
		}
	}

	return os.WriteFile(path, content, 0o644)
}
