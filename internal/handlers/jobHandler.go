package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/jobModel"
	"github.com/AlenaSalanevich/financeadviser/internal/job"
	"github.com/AlenaSalanevich/financeadviser/internal/metrics"
	"github.com/AlenaSalanevich/financeadviser/internal/rag"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service    *job.Service
	ragService rag.Service
}

func InitJobHandler(jobService *job.Service, ragService rag.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, ragService: ragService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})

}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "job id", newJob.id)
	logJH.Info("To create new rebuild job")
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

func GetRecentBuilds(traceId string, limit int) ([]docModel.BuildSummary, error) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance == nil || handlerInstance.service.BuildReportStore == nil {
		return nil, nil
	}
	return handlerInstance.service.BuildReportStore.RecentReports(ctxC, limit)
}

func SearchIndex(ctx context.Context, query docModel.Query) (docModel.RetrievalResult, error) {
	return handlerInstance.ragService.Search(ctx, query)
}

func IndexReady() bool {
	return handlerInstance != nil && handlerInstance.ragService.Ready()
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {

	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.JobType = jobModel.JobTypeRebuild
	_job.CurrentStep = jobModel.BuildInit
	_job.JobPayload.SourceDir = newJob.sourceDir
	_job.JobPayload.UploadFileName = newJob.uploadFileName
	_job.JobPayload.UploadPath = newJob.uploadPath

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new rebuild job")

	//rebuilds batch-call the embedding API and can run for a while,
	//so every queued rebuild nudges the dispatcher the same way the
	//request counter does
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeRebuild {
		metrics.StartDispatcherSignalCount() //metrics
		logJH.Debug("Worker count ", accurateCount)
		h.service.DispatcherChannel <- true
	}
}
