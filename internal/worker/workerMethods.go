package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	jobmodel "github.com/AlenaSalanevich/financeadviser/internal/domain/jobModel"
	"github.com/AlenaSalanevich/financeadviser/internal/metrics"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		// Record total time at the end
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	// a rebuild walks every source and batch-calls the embedding API,
	// so it gets far more headroom than a query would
	ctx, cancel := context.WithTimeout(ctxTrace, config.RebuildJobTimeout)
	defer cancel()
	logger.With("trace Id ", job.TraceId)
	logger.Debug("Processing job:", "job Id:", job.Id)

	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	if job.JobType == jobmodel.JobTypeRebuild {
		job = _ragService.RebuildIndex(ctx, job)
		if job.Status != jobmodel.JobStatusError {
			saveBuildReport(ctx, job)
		}
	}

	job.EndTime = time.Now()
	finishJob(ctx, job)
}

func removeWorker(reason string) {

	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()

}

func saveBuildReport(ctx context.Context, job jobmodel.Job) {
	if _jobService.BuildReportStore == nil || job.JobPayload.Summary == nil {
		return
	}
	if err := _jobService.BuildReportStore.SaveReport(ctx, *job.JobPayload.Summary); err != nil {
		logger.Error("Failed to save build report", "err", err)
	}
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update status in Redis", "err", err)
	}
}

// finishJob persists whatever status the rebuild ended with.
func finishJob(ctx context.Context, job jobmodel.Job) {
	if job.Status != jobmodel.JobStatusError {
		job.Status = jobmodel.JobStatusComplete
	}
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update status in Redis", "err", err)
	}
}
