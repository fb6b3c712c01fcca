package docModel

import "time"

type DocType string

var (
	PDF  DocType = "PDF"
	DOCX DocType = "DOCX"
	TXT  DocType = "TXT"
	ERR  DocType = "ERROR"
)

// Document is one source file after extraction: an ordered set of pages plus
// provenance. Immutable once loaded.
type Document struct {
	Id          string    `json:"source_doc_id"`
	Name        string    `json:"doc_name"`
	Path        string    `json:"path"`
	ContentType DocType   `json:"content_type"`
	IngestedAt  time.Time `json:"ingested_at"`
	Pages       []Page    `json:"pages"`
}

// Page is one raw text unit of a document.
type Page struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// Chunk is the unit of embedding and retrieval. Id is a deterministic hash
// of provenance and content so that rebuilding the same corpus yields the
// same id set.
type Chunk struct {
	Id      string `json:"chunk_id"`
	DocId   string `json:"source_doc_id"`
	DocName string `json:"doc_name"`
	Page    int    `json:"page_num"`
	Seq     int    `json:"chunk_order"`
	Start   int    `json:"start_offset"` //rune offset within the page
	Text    string `json:"content"`
}

// Query is a retrieval request. K==0 means "use the configured default".
type Query struct {
	Text    string
	K       int
	Filters map[string]string
}

// RetrievedChunk pairs a chunk with its similarity score.
type RetrievedChunk struct {
	ChunkId string  `json:"chunk_id"`
	Text    string  `json:"content"`
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Score   float32 `json:"score"`
}

// RetrievalResult is ordered by descending score, length <= K.
type RetrievalResult struct {
	Query   string           `json:"query"`
	ModelId string           `json:"model_id"`
	Results []RetrievedChunk `json:"results"`
}

// SourceReport is the per-source outcome of one build run.
type SourceReport struct {
	Source string `json:"source"`
	Pages  int    `json:"pages"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

// BuildSummary is the outcome of one Index Builder run. Per-source failures
// are collected here instead of aborting the run.
type BuildSummary struct {
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	ModelId     string         `json:"model_id"`
	Dimension   int            `json:"dimension"`
	Metric      string         `json:"metric"`
	ChunkCount  int            `json:"chunk_count"`
	Succeeded   []SourceReport `json:"succeeded"`
	Failed      []SourceReport `json:"failed,omitempty"`
	IndexPath   string         `json:"index_path"`
	Strict      bool           `json:"strict"`
}
