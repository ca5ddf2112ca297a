package indexer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
)

// SnapshotWriter streams rows into a JSON array in a temp file next to the
// target. The target only appears once Commit succeeds.
type SnapshotWriter struct {
	path string
	tmp  *os.File
	buf  *bufio.Writer
	rows int
	done bool
}

func CreateSnapshot(path string) (*SnapshotWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create snapshot temp file: %w", err)
	}

	w := &SnapshotWriter{
		path: path,
		tmp:  tmp,
		buf:  bufio.NewWriterSize(tmp, 1<<20),
	}
	if _, err := w.buf.WriteString("[\n"); err != nil {
		w.Abort()
		return nil, err
	}
	return w, nil
}

func (w *SnapshotWriter) Write(row models.StandardRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal row %s: %w", row.Code, err)
	}
	if w.rows > 0 {
		if _, err := w.buf.WriteString(",\n"); err != nil {
			return err
		}
	}
	if _, err := w.buf.Write(data); err != nil {
		return err
	}
	w.rows++
	return nil
}

// Rows reports how many rows were written so far.
func (w *SnapshotWriter) Rows() int {
	return w.rows
}

// Commit closes the array, syncs and renames the temp file over the target.
func (w *SnapshotWriter) Commit() error {
	if w.done {
		return fmt.Errorf("snapshot already closed")
	}

	if _, err := w.buf.WriteString("\n]\n"); err != nil {
		w.Abort()
		return err
	}
	if err := w.buf.Flush(); err != nil {
		w.Abort()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := w.tmp.Sync(); err != nil {
		w.Abort()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := w.tmp.Close(); err != nil {
		w.Abort()
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(w.tmp.Name(), w.path); err != nil {
		w.Abort()
		return fmt.Errorf("rename snapshot: %w", err)
	}

	w.done = true
	return nil
}

// Abort discards the temp file. Safe to call more than once and after Commit.
func (w *SnapshotWriter) Abort() {
	if w.done {
		return
	}
	w.done = true
	_ = w.tmp.Close()
	_ = os.Remove(w.tmp.Name())
}
