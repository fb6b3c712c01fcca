package ragerrors

import (
	"errors"
	"fmt"
)

// Sentinels for conditions the caller branches on.
var (
	// ErrEmptyIndex signals a search against an index that holds zero
	// entries. It is a distinguishable condition, not a crash.
	ErrEmptyIndex = errors.New("vector index holds no entries")

	// ErrNotReady signals that no index snapshot has been published yet.
	// The serving layer maps it to service-unavailable.
	ErrNotReady = errors.New("no index snapshot loaded")

	// ErrInvalidK rejects queries asking for fewer than one result.
	ErrInvalidK = errors.New("k must be >= 1")
)

// SourceReadError marks one source file as unreadable, corrupt or of an
// unsupported format. The builder collects these per source instead of
// aborting the whole run (unless strict mode is on).
type SourceReadError struct {
	Source string
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("source %s unreadable: %v", e.Source, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// EmbeddingError wraps failures of the embedding model: empty input,
// model unavailability or a rejected batch.
type EmbeddingError struct {
	ModelID string
	Err     error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding with %s failed: %v", e.ModelID, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// IndexCorruptError is returned by snapshot load on a malformed payload or
// a model-compatibility fingerprint mismatch. Loading must fail loudly and
// never fall back to an empty index.
type IndexCorruptError struct {
	Path   string
	Reason string
	Err    error
}

func (e *IndexCorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("index snapshot %s corrupt: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("index snapshot %s corrupt: %s", e.Path, e.Reason)
}

func (e *IndexCorruptError) Unwrap() error { return e.Err }
