package adapter

import (
	"fmt"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/api"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:      string(job.Status),
		CurrentStep: string(job.CurrentStep),
		BuildReport: toBuildReport(job.JobPayload),
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func toBuildReport(payload jobModel.JobPayload) *api.BuildResponse {
	if payload.Summary == nil {
		return nil
	}
	summary := ToBuildResponse(*payload.Summary)
	return &summary
}

func ToBuildResponse(summary docModel.BuildSummary) api.BuildResponse {
	return api.BuildResponse{
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		ModelId:    summary.ModelId,
		Dimension:  summary.Dimension,
		Metric:     summary.Metric,
		ChunkCount: summary.ChunkCount,
		Succeeded:  len(summary.Succeeded),
		Failed:     len(summary.Failed),
		Strict:     summary.Strict,
	}
}

func ToBuildHistoryResponse(summaries []docModel.BuildSummary) api.BuildHistoryResponse {
	builds := make([]api.BuildResponse, 0, len(summaries))
	for _, summary := range summaries {
		builds = append(builds, ToBuildResponse(summary))
	}
	return api.BuildHistoryResponse{Builds: builds}
}

func ToSearchResponse(result docModel.RetrievalResult) api.SearchResponse {
	results := make([]api.SearchResult, 0, len(result.Results))
	for _, chunk := range result.Results {
		results = append(results, api.SearchResult{
			Content: chunk.Text,
			Source:  chunk.Source,
			Page:    chunk.Page,
			Score:   float64(chunk.Score),
		})
	}
	return api.SearchResponse{
		Query:   result.Query,
		ModelId: result.ModelId,
		Results: results,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
