package loader

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

// DocumentLoader turns a source path into extracted pages with provenance.
// It never mutates the input files.
type DocumentLoader interface {
	Load(path string) (docModel.Document, error)
}

type FileLoader struct {
	logger *logger_i.Logger
}

func NewFileLoader() *FileLoader {
	return &FileLoader{logger: logger_i.NewLogger("Loader")}
}

// supported source extensions, matched case-insensitively
var sourceGlobs = []string{"*.pdf", "*.txt", "*.docx", "*.rtf", "*.odt"}

// DiscoverSources walks dir and returns the supported source files in a
// stable (sorted) order so rebuilds see sources in the same sequence.
func DiscoverSources(dir string) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, glob := range sourceGlobs {
			if ok, _ := filepath.Match(glob, name); ok {
				sources = append(sources, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, &ragerrors.SourceReadError{Source: dir, Err: err}
	}
	sort.Strings(sources)
	return sources, nil
}

func (l *FileLoader) Load(path string) (docModel.Document, error) {
	docType := getDocType(path)
	if docType == docModel.ERR {
		return docModel.Document{}, &ragerrors.SourceReadError{
			Source: path,
			Err:    errUnsupportedFormat,
		}
	}

	l.logger.Debug("Loading source", "path", path, "type", docType)
	rawPages, err := extractText(path, docType)
	if err != nil {
		return docModel.Document{}, &ragerrors.SourceReadError{Source: path, Err: err}
	}

	//blank pages carry nothing worth embedding
	pages := make([]docModel.Page, 0, len(rawPages))
	for _, p := range rawPages {
		if strings.TrimSpace(p.Content) == "" {
			continue
		}
		pages = append(pages, p)
	}

	return docModel.Document{
		Id:          filepath.ToSlash(filepath.Clean(path)),
		Name:        filepath.Base(path),
		Path:        path,
		ContentType: docType,
		IngestedAt:  time.Now(),
		Pages:       pages,
	}, nil
}

func getDocType(docPath string) docModel.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return docModel.PDF
	case ".docx", ".rtf", ".odt":
		return docModel.DOCX
	case ".txt":
		return docModel.TXT
	default:
		return docModel.ERR
	}
}
