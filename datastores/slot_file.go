package datastores

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSlot implements [Slot] as the file <Dir>/<Key>.json.
type FileSlot struct {
	Dir string
	Key string
}

var _ Slot = (*FileSlot)(nil)

func (s *FileSlot) Path() string { return filepath.Join(s.Dir, s.Key+".json") }

func (s *FileSlot) Read(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("file slot: read: %w", err)
	}
	return b, nil
}

// Write replaces the file atomically through a renamed temporary file.
func (s *FileSlot) Write(_ context.Context, b []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("file slot: mkdir: %w", err)
	}

	f, err := os.CreateTemp(s.Dir, s.Key+".*.tmp")
	if err != nil {
		return fmt.Errorf("file slot: create: %w", err)
	}
	defer os.Remove(f.Name()) //nolint: errcheck // gone after a successful rename

	if _, err = f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("file slot: write: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("file slot: close: %w", err)
	}
	if err = os.Rename(f.Name(), s.Path()); err != nil {
		return fmt.Errorf("file slot: rename: %w", err)
	}
	return nil
}
