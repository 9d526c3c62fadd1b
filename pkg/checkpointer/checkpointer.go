package checkpointer

import (
	"context"
	"errors"
)

// ErrCorruptCheckpoint is returned by Read when the stored value is not a
// decimal block height.
var ErrCorruptCheckpoint = errors.New("corrupt checkpoint")

// Checkpointer abstracts checkpoint persistence. A checkpoint is the last block height the
// scanner observed, enabling resumption after restarts. There is a single writer.
type Checkpointer interface {
	// Initialize ensures the underlying storage is ready. This should be idempotent and safe
	// to call multiple times.
	Initialize(ctx context.Context) error

	// Write durably overwrites the stored height.
	Write(ctx context.Context, height uint64) error

	// Read retrieves the stored height and whether a checkpoint exists. If no checkpoint
	// exists, exists will be false and height will be 0.
	Read(ctx context.Context) (height uint64, exists bool, err error)

	// Remove deletes the stored checkpoint. Removing a missing checkpoint is not an error.
	Remove(ctx context.Context) error
}
