package jobModel

import (
	"context"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	BuildInit   InternalStatus = "BuildInit"
	LoadCall    InternalStatus = "Loading"
	IndexWrite  InternalStatus = "IndexWrite"
	PublishCall InternalStatus = "Publish"
	Error       InternalStatus = "Error"
	Complete    InternalStatus = "Complete"

	JobTypeRebuild JobType = "Rebuild"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	//set when an uploaded document triggered the rebuild
	UploadFileName string `json:"upload_file_name,omitempty"`
	UploadPath     string `json:"upload_path,omitempty"`

	SourceDir string                 `json:"source_dir,omitempty"`
	Summary   *docModel.BuildSummary `json:"summary,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// BuildReportStore keeps the recent build summaries for /builds.
type BuildReportStore interface {
	SaveReport(ctx context.Context, summary docModel.BuildSummary) error
	RecentReports(ctx context.Context, limit int) ([]docModel.BuildSummary, error)
}
