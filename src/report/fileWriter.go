package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileWriter replaces the report file atomically so a reader never sees a partial document.
type FileWriter struct {
	path string
}

func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

func (fw *FileWriter) Name() string { return fw.path }

func (fw *FileWriter) WriteDocument(_ context.Context, doc []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(fw.path), "."+filepath.Base(fw.path)+".*")
	if err != nil {
		return fmt.Errorf("error on creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("error on writing report: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), fw.path)
}

// Clear removes the report file. A missing file is already clear.
func (fw *FileWriter) Clear(_ context.Context) error {
	if err := os.Remove(fw.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error on removing stale report: %w", err)
	}
	return nil
}
