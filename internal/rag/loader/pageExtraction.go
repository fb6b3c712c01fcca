package loader

import (
	"errors"
	"fmt"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

var errUnsupportedFormat = errors.New("unsupported document format")

var extractLogger = logger_i.NewLogger("PageExtraction")

func extractText(path string, contentType docModel.DocType) ([]docModel.Page, error) {
	switch contentType {
	case docModel.PDF:
		return extractPDF(path)
	case docModel.DOCX, docModel.TXT:
		return extractFlat(path)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedFormat, contentType)
	}
}

func extractPDF(path string) ([]docModel.Page, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []docModel.Page
	numPages := f.NumPage()
	extractLogger.Debug("extractPDF", "path", path, "pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// keep going, a single broken page should not sink the document
			extractLogger.Error("Error parsing page content", "page", i, "error", err)
			continue
		}

		pages = append(pages, docModel.Page{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

// extractFlat reads .docx, .rtf, .odt and plaintext files. The extractor has
// no page boundaries for these formats, so the whole file lands on page 1.
func extractFlat(path string) ([]docModel.Page, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}

	return []docModel.Page{
		{
			Number:  1,
			Content: text,
		},
	}, nil
}

// protectExtract guards against pdf pages whose content stream hangs the
// parser. Seen in the wild with scanned statements.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		return "", errors.New("page extraction timeout")
	}
}
