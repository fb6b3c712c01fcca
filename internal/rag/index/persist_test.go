package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
)

func buildPersistedIndex(t *testing.T) (*Index, string) {
	t.Helper()
	ix := newTestIndex(t, MetricCosine)
	mustAdd(t, ix,
		[]docModel.Chunk{
			chunkN("a", "alpha.pdf", 1),
			chunkN("b", "alpha.pdf", 2),
			chunkN("c", "beta.txt", 1),
		},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.5, 0.5, 0},
		})

	path := filepath.Join(t.TempDir(), "index.snapshot")
	if err := ix.Persist(path); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	return ix, path
}

func TestPersistLoad_Roundtrip(t *testing.T) {
	original, path := buildPersistedIndex(t)

	loaded, err := Load(path, testModel, 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Len() != original.Len() {
		t.Fatalf("entry count: got %d, want %d", loaded.Len(), original.Len())
	}
	if loaded.ModelId() != original.ModelId() || loaded.Dimension() != original.Dimension() || loaded.Metric() != original.Metric() {
		t.Error("fingerprint fields did not survive the roundtrip")
	}

	// identical query must give identical results
	wantHits, err := original.Search([]float32{1, 0.2, 0}, 3, nil)
	if err != nil {
		t.Fatalf("Search original: %v", err)
	}
	gotHits, err := loaded.Search([]float32{1, 0.2, 0}, 3, nil)
	if err != nil {
		t.Fatalf("Search loaded: %v", err)
	}
	for i := range wantHits {
		if gotHits[i].Chunk.Id != wantHits[i].Chunk.Id || gotHits[i].Score != wantHits[i].Score {
			t.Errorf("hit %d differs after reload: %s/%f vs %s/%f",
				i, gotHits[i].Chunk.Id, gotHits[i].Score, wantHits[i].Chunk.Id, wantHits[i].Score)
		}
	}
}

func TestLoad_ModelMismatch(t *testing.T) {
	_, path := buildPersistedIndex(t)

	_, err := Load(path, "a-different-model", 3)
	var corrupt *ragerrors.IndexCorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected IndexCorruptError, got %v", err)
	}
}

func TestLoad_DimensionMismatch(t *testing.T) {
	_, path := buildPersistedIndex(t)

	_, err := Load(path, testModel, 768)
	var corrupt *ragerrors.IndexCorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected IndexCorruptError, got %v", err)
	}
}

func TestLoad_MalformedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.snapshot")
	if err := os.WriteFile(path, []byte("not a snapshot at all"), 0o640); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(path, testModel, 3)
	var corrupt *ragerrors.IndexCorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected IndexCorruptError, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.snapshot"), testModel, 3)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var corrupt *ragerrors.IndexCorruptError
	if errors.As(err, &corrupt) {
		t.Error("a missing file is not corruption, plain error expected")
	}
}

func TestPersist_OverwritesAtomically(t *testing.T) {
	_, path := buildPersistedIndex(t)

	replacement := newTestIndex(t, MetricCosine)
	mustAdd(t, replacement,
		[]docModel.Chunk{chunkN("z", "gamma.txt", 1)},
		[][]float32{{0, 0, 1}})
	if err := replacement.Persist(path); err != nil {
		t.Fatalf("Persist over existing file: %v", err)
	}

	loaded, err := Load(path, testModel, 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 1 {
		t.Errorf("expected replacement snapshot with 1 entry, got %d", loaded.Len())
	}

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot in the dir, found %d entries", len(entries))
	}
}
