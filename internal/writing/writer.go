// Package writing persists extracted text to its destination. The file
// writer is atomic with respect to the conversion pipeline's skip-check: a
// destination name only ever appears with complete content.
package writing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Writer persists one text result to the destination it was constructed
// for.
type Writer interface {
	Write(ctx context.Context, content string) error
}

// FileWriter writes UTF-8 text to a single file path, overwriting any
// existing file at that path.
type FileWriter struct {
	Path string
}

func NewFileWriter(path string) *FileWriter {
	return &FileWriter{Path: path}
}

// Write stages the content in a temp file next to the destination and
// renames it into place, so a crash or failure mid-write never leaves a
// partial file under the final name.
func (w *FileWriter) Write(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(w.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %q: %w", w.Path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %q: %w", w.Path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %q: %w", w.Path, err)
	}
	if err := os.Rename(tmpName, w.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into %q: %w", w.Path, err)
	}
	return nil
}
