package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
)

// Chunker splits page text into fixed-size windows of runes where each
// window starts size-overlap runes after the previous one. A non-first
// chunk therefore repeats the last `overlap` runes of its predecessor, and
// stripping that prefix from every chunk after the first reassembles the
// page exactly. Chunk ids are content hashes, so identical input and
// config always produce identical ids.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// ChunkDocument splits every page of doc. Blank pages yield no chunks; a
// page shorter than the chunk size yields exactly one.
func (c *Chunker) ChunkDocument(doc docModel.Document) []docModel.Chunk {
	var chunks []docModel.Chunk
	for _, page := range doc.Pages {
		chunks = append(chunks, c.ChunkPage(doc, page)...)
	}
	return chunks
}

func (c *Chunker) ChunkPage(doc docModel.Document, page docModel.Page) []docModel.Chunk {
	runes := []rune(page.Content)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []docModel.Chunk
	for start, seq := 0, 0; ; start, seq = start+step, seq+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		text := string(runes[start:end])
		chunks = append(chunks, docModel.Chunk{
			Id:      ChunkId(doc.Id, page.Number, seq, text),
			DocId:   doc.Id,
			DocName: doc.Name,
			Page:    page.Number,
			Seq:     seq,
			Start:   start,
			Text:    text,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Reassemble inverts the chunking of a single page: the first chunk is
// taken whole, every later chunk contributes its text after the overlap
// prefix. Used by tests to check the no-text-loss invariant; kept exported
// because change detection on re-ingestion relies on the same property.
func (c *Chunker) Reassemble(chunks []docModel.Chunk) string {
	out := make([]rune, 0)
	for i, chunk := range chunks {
		runes := []rune(chunk.Text)
		if i == 0 {
			out = append(out, runes...)
			continue
		}
		if len(runes) > c.overlap {
			out = append(out, runes[c.overlap:]...)
		}
	}
	return string(out)
}

// ChunkId is the stable identity of a chunk: provenance plus content.
func ChunkId(docId string, page, seq int, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00", docId, page, seq)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
