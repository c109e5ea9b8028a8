// Package output writes run artifacts to the output directory.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink creates named artifacts. Callers must Close what they create.
type Sink interface {
	Create(name string) (io.WriteCloser, error)
}

// Dir is a Sink backed by a local directory. The directory is created on the
// first Create call, so a run that fails before writing leaves nothing behind.
type Dir struct {
	path string
}

// NewDir returns a Sink writing into path.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Create opens name inside the directory for writing, truncating any
// previous artifact of the same name.
func (d *Dir) Create(name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(d.Path(name))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return f, nil
}

// Path returns the location of the named artifact.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.path, name)
}
