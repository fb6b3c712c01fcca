package index

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
)

// snapshot wire format. Bump the version on any incompatible change so old
// artifacts fail with IndexCorruptError instead of decoding garbage.
const snapshotVersion = 1

type snapshotPayload struct {
	Version   int
	ModelId   string
	Dimension int
	Metric    string
	BuiltAt   time.Time
	Chunks    []docModel.Chunk
	Vectors   [][]float32
}

// Persist serializes the full index (vectors, chunk metadata and the
// model-compatibility fingerprint) to path. The write goes through a temp
// file and a rename so a crashed build never leaves a half-written
// snapshot where the previous good one was.
func (ix *Index) Persist(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	payload := snapshotPayload{
		Version:   snapshotVersion,
		ModelId:   ix.modelId,
		Dimension: ix.dimension,
		Metric:    string(ix.metric),
		BuiltAt:   ix.builtAt,
		Chunks:    ix.chunks,
		Vectors:   ix.vectors,
	}
	if err := gob.NewEncoder(tmp).Encode(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}

// Load reads a persisted snapshot and validates it against the embedding
// model the process is configured with. A fingerprint mismatch means the
// artifact was built by a different model and must not be served.
func Load(path string, expectModelId string, expectDimension int) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var payload snapshotPayload
	if err := gob.NewDecoder(f).Decode(&payload); err != nil {
		return nil, &ragerrors.IndexCorruptError{Path: path, Reason: "malformed payload", Err: err}
	}

	if payload.Version != snapshotVersion {
		return nil, &ragerrors.IndexCorruptError{
			Path:   path,
			Reason: fmt.Sprintf("snapshot version %d, expected %d", payload.Version, snapshotVersion),
		}
	}
	if payload.ModelId != expectModelId {
		return nil, &ragerrors.IndexCorruptError{
			Path:   path,
			Reason: fmt.Sprintf("built with embedding model %s, configured model is %s", payload.ModelId, expectModelId),
		}
	}
	if payload.Dimension != expectDimension {
		return nil, &ragerrors.IndexCorruptError{
			Path:   path,
			Reason: fmt.Sprintf("built with dimension %d, configured dimension is %d", payload.Dimension, expectDimension),
		}
	}
	if len(payload.Chunks) != len(payload.Vectors) {
		return nil, &ragerrors.IndexCorruptError{
			Path:   path,
			Reason: fmt.Sprintf("%d chunks but %d vectors", len(payload.Chunks), len(payload.Vectors)),
		}
	}

	metric, err := ParseMetric(payload.Metric)
	if err != nil {
		return nil, &ragerrors.IndexCorruptError{Path: path, Reason: "unknown metric", Err: err}
	}

	ix, err := New(payload.ModelId, payload.Dimension, metric)
	if err != nil {
		return nil, &ragerrors.IndexCorruptError{Path: path, Reason: "invalid header", Err: err}
	}
	ix.builtAt = payload.BuiltAt
	if err := ix.Add(payload.Chunks, payload.Vectors); err != nil {
		return nil, &ragerrors.IndexCorruptError{Path: path, Reason: "invalid entries", Err: err}
	}
	return ix, nil
}
