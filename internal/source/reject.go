package source

import (
	"bufio"
	"fmt"
	"os"
)

// RejectWriter collects rejected rows in a companion file, one row per line.
// The file is created lazily on the first write so a clean load leaves no
// reject file behind.
type RejectWriter struct {
	path string
	file *os.File
	buf  *bufio.Writer
}

// NewRejectWriter prepares a writer for the given path. No file is created
// until the first Write call.
func NewRejectWriter(path string) *RejectWriter {
	return &RejectWriter{path: path}
}

// Write appends one rejected row.
func (w *RejectWriter) Write(line string) error {
	if w.file == nil {
		f, err := os.Create(w.path)
		if err != nil {
			return fmt.Errorf("failed to create reject file %s: %w", w.path, err)
		}
		w.file = f
		w.buf = bufio.NewWriter(f)
	}
	if _, err := w.buf.WriteString(line); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

// Path returns the reject file path.
func (w *RejectWriter) Path() string {
	return w.path
}

// Close flushes and closes the reject file if one was created.
func (w *RejectWriter) Close() error {
	if w.file == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// RemoveStale deletes a leftover reject file from a previous run so its
// presence always means rows were rejected by the latest run.
func RemoveStale(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale reject file %s: %w", path, err)
	}
	return nil
}
