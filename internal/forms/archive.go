package forms

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Archive accumulates named document bytes and produces the final zip. It
// is owned by one orchestrator and appended to sequentially; it is not safe
// for concurrent use.
type Archive struct {
	buf       bytes.Buffer
	writer    *zip.Writer
	names     map[string]bool
	order     []string
	modTime   time.Time
	finalized bool
}

// NewArchive creates an empty archive. All entries share one modification
// time so identical inputs produce identical archive bytes within a run.
func NewArchive(modTime time.Time) *Archive {
	a := &Archive{
		names:   make(map[string]bool),
		modTime: modTime,
	}
	a.writer = zip.NewWriter(&a.buf)
	return a
}

// AddEntry appends one named blob. Entry names must be unique; the naming
// policy guarantees that, and the archive still refuses duplicates outright
// rather than silently overwriting.
func (a *Archive) AddEntry(name string, data []byte) error {
	if a.finalized {
		return fmt.Errorf("archive already finalized")
	}
	if name == "" {
		return fmt.Errorf("entry name cannot be empty")
	}
	if a.names[name] {
		return fmt.Errorf("duplicate archive entry name: %s", name)
	}

	w, err := a.writer.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.modTime,
	})
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", name, err)
	}

	a.names[name] = true
	a.order = append(a.order, name)
	return nil
}

// Finalize closes the archive and returns its bytes. It can be called once.
func (a *Archive) Finalize() ([]byte, error) {
	if a.finalized {
		return nil, fmt.Errorf("archive already finalized")
	}
	a.finalized = true

	if err := a.writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return a.buf.Bytes(), nil
}

// EntryCount returns the number of entries added so far.
func (a *Archive) EntryCount() int {
	return len(a.order)
}

// EntryNames returns the entry names in insertion order.
func (a *Archive) EntryNames() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}
