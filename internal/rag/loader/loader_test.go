package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
	return path
}

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected docModel.DocType
	}{
		{"report.pdf", docModel.PDF},
		{"REPORT.PDF", docModel.PDF},
		{"notes.txt", docModel.TXT},
		{"contract.docx", docModel.DOCX},
		{"old.rtf", docModel.DOCX},
		{"open.odt", docModel.DOCX},
		{"image.png", docModel.ERR},
		{"noextension", docModel.ERR},
	}

	for _, tt := range tests {
		if got := getDocType(tt.path); got != tt.expected {
			t.Errorf("getDocType(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestLoad_TextFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "statement.txt", "quarterly dividend income rose by 4 percent")

	doc, err := NewFileLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Name != "statement.txt" {
		t.Errorf("Name = %s", doc.Name)
	}
	if doc.ContentType != docModel.TXT {
		t.Errorf("ContentType = %v", doc.ContentType)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Number != 1 {
		t.Errorf("flat formats are a single page numbered 1, got %d", doc.Pages[0].Number)
	}
	if doc.Pages[0].Content == "" {
		t.Error("page content is empty")
	}
}

func TestLoad_BlankFileYieldsNoPages(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blank.txt", "   \n\t  \n")

	doc, err := NewFileLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Pages) != 0 {
		t.Errorf("expected blank pages to be dropped, got %d pages", len(doc.Pages))
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "chart.png", "not really an image")

	_, err := NewFileLoader().Load(path)
	var srcErr *ragerrors.SourceReadError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected SourceReadError, got %v", err)
	}
	if srcErr.Source != path {
		t.Errorf("error names %s, want %s", srcErr.Source, path)
	}
}

func TestLoad_CorruptPDF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.pdf", "this is not a pdf")

	_, err := NewFileLoader().Load(path)
	var srcErr *ragerrors.SourceReadError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected SourceReadError for unreadable pdf, got %v", err)
	}
}

func TestDiscoverSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "b")
	writeFile(t, dir, "a.pdf", "a")
	writeFile(t, dir, "skip.png", "binary")
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	writeFile(t, sub, "c.docx", "c")

	sources, err := DiscoverSources(dir)
	if err != nil {
		t.Fatalf("DiscoverSources: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %d: %v", len(sources), sources)
	}
	// sorted, so repeat scans enumerate identically
	for i := 1; i < len(sources); i++ {
		if sources[i-1] >= sources[i] {
			t.Errorf("sources not sorted: %s before %s", sources[i-1], sources[i])
		}
	}
	for _, s := range sources {
		if filepath.Ext(s) == ".png" {
			t.Errorf("unsupported file surfaced: %s", s)
		}
	}
}

func TestDiscoverSources_MissingDir(t *testing.T) {
	_, err := DiscoverSources(filepath.Join(t.TempDir(), "does-not-exist"))
	var srcErr *ragerrors.SourceReadError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected SourceReadError, got %v", err)
	}
}
