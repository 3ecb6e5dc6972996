package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes the export to a local file, replacing it atomically.
type FileSink struct {
	Path string
}

// Put writes body to a temp file next to Path and renames it into place.
func (s FileSink) Put(_ context.Context, body []byte) (string, error) {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // No-op after rename

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return "", fmt.Errorf("rename to %s: %w", s.Path, err)
	}
	return s.Path, nil
}
