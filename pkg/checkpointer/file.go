package checkpointer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultPath is the checkpoint file used when none is configured.
const DefaultPath = "last_block.txt"

// File persists the checkpoint as plain decimal text in a single file.
type File struct {
	path string
}

func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("invalid checkpoint path: must not be empty")
	}
	return &File{path: path}, nil
}

// Path returns the location of the checkpoint file.
func (f *File) Path() string { return f.path }

// Initialize creates the directory holding the checkpoint file.
func (f *File) Initialize(_ context.Context) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint directory %s: %w", dir, err)
	}
	return nil
}

// Write replaces the file through a temporary sibling and a rename so a crash
// never leaves a partially written height behind.
func (f *File) Write(_ context.Context, height uint64) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.WriteString(strconv.FormatUint(height, 10)); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint %d: %w", height, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync checkpoint %d: %w", height, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint %d: %w", height, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace checkpoint %d: %w", height, err)
	}
	return nil
}

func (f *File) Read(_ context.Context) (uint64, bool, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint %s: %w", f.path, err)
	}
	raw := strings.TrimSpace(string(b))
	height, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s holds %q", ErrCorruptCheckpoint, f.path, raw)
	}
	return height, true, nil
}

func (f *File) Remove(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint %s: %w", f.path, err)
	}
	return nil
}

var _ Checkpointer = (*File)(nil)
