package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Result struct {
	Status      string         `json:"status"`
	CurrentStep string         `json:"current_step,omitempty"`
	BuildReport *BuildResponse `json:"build_report,omitempty"`
}

// BuildResponse is the external view of one index build.
type BuildResponse struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ModelId    string    `json:"model_id"`
	Dimension  int       `json:"dimension"`
	Metric     string    `json:"metric"`
	ChunkCount int       `json:"chunk_count" example:"1523"`
	Succeeded  int       `json:"succeeded_sources" example:"12"`
	Failed     int       `json:"failed_sources" example:"1"`
	Strict     bool      `json:"strict"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type SearchResult struct {
	Content string  `json:"content"`
	Source  string  `json:"source" example:"statements/2024-q1.pdf"`
	Page    int     `json:"page" example:"3"`
	Score   float64 `json:"score" example:"0.8732"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	ModelId string         `json:"model_id" example:"text-embedding-3-small"`
	Results []SearchResult `json:"results"`
}

type BuildHistoryResponse struct {
	Builds []BuildResponse `json:"builds"`
}

// requests---------------------

type SearchRequest struct {
	Query   string            `json:"query" validate:"required"`
	TopK    int               `json:"top_k,omitempty" example:"4"`
	Filters map[string]string `json:"filters,omitempty"`
}

type ReindexRequest struct {
	SourceDir string `json:"source_dir,omitempty"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}
