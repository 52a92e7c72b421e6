package worker

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/akolanti/RagBot/internal/config"
	jobmodel "github.com/akolanti/RagBot/internal/domain/jobModel"
	"github.com/akolanti/RagBot/internal/index"
	"github.com/akolanti/RagBot/internal/metrics"
)

func executeJob(currentJob jobmodel.Job) {
	start := time.Now()
	defer func() {
		// Record total time at the end
		metrics.CaptureJobMetrics(string(currentJob.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, currentJob.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.RebuildJobTimeout)
	defer cancel()
	log := logger.With("traceId", currentJob.TraceId, "job id", currentJob.Id)
	log.Debug("Processing job:", "type", currentJob.JobType)

	saveJobState(ctx, currentJob, jobmodel.JobStatusRunning)

	switch currentJob.JobType {
	case jobmodel.JobTypeRebuild:
		currentJob = runRebuild(ctx, currentJob)
	case jobmodel.JobTypeSync:
		currentJob = runSync(ctx, currentJob)
	default:
		log.Error("Unknown job type", "type", currentJob.JobType)
		currentJob = failJob(currentJob, fmt.Errorf("unknown job type %q", currentJob.JobType))
	}

	currentJob.EndTime = time.Now()
	if currentJob.Status == jobmodel.JobStatusError {
		saveJobState(ctx, currentJob, jobmodel.JobStatusError)
		return
	}
	saveJobState(ctx, currentJob, jobmodel.JobStatusComplete)
}

// runRebuild executes a queued rebuild. The handler that queued it holds
// the rebuild lock, the job releases it whatever the outcome.
func runRebuild(ctx context.Context, currentJob jobmodel.Job) jobmodel.Job {
	defer index.ReleaseLock()

	docsDir := currentJob.JobPayload.DocsDir
	if docsDir == "" {
		docsDir = config.DocsDir
	}

	currentJob.CurrentStep = jobmodel.RebuildLoading
	return buildInto(ctx, currentJob, docsDir)
}

// runSync clones the docs repository, then rebuilds from the clone. The
// sync takes the lock itself since nothing held it at queue time.
func runSync(ctx context.Context, currentJob jobmodel.Job) jobmodel.Job {
	if err := index.AcquireLock(); err != nil {
		logger.Error("Sync skipped, rebuild lock unavailable", "error", err)
		return failJob(currentJob, err)
	}
	defer index.ReleaseLock()

	currentJob.CurrentStep = jobmodel.RepoCloneCall
	saveJobState(ctx, currentJob, jobmodel.JobStatusRunning)
	docsDir, cleanup, err := _fetcher.FetchDocs(ctx)
	if err != nil {
		logger.Error("Repository sync failed", "error", err)
		return failJob(currentJob, err)
	}
	defer cleanup()

	currentJob.CurrentStep = jobmodel.RebuildLoading
	return buildInto(ctx, currentJob, docsDir)
}

func buildInto(ctx context.Context, currentJob jobmodel.Job, docsDir string) jobmodel.Job {
	// mirror builder phases into the record, status polls see live progress
	_builder.NotifyStages(func(step jobmodel.InternalStatus) {
		currentJob.CurrentStep = step
		saveJobState(ctx, currentJob, jobmodel.JobStatusRunning)
	})
	defer _builder.NotifyStages(nil)

	result, err := _builder.Build(ctx, docsDir)
	if err != nil {
		logger.Error("Index build failed", "error", err)
		return failJob(currentJob, err)
	}

	currentJob.JobPayload.DocumentCount = result.DocumentCount
	currentJob.JobPayload.ChunkCount = result.ChunkCount
	currentJob.JobPayload.ErrorCount = result.ErrorCount
	currentJob.CurrentStep = jobmodel.Complete
	return currentJob
}

func failJob(currentJob jobmodel.Job, err error) jobmodel.Job {
	currentJob.Status = jobmodel.JobStatusError
	currentJob.CurrentStep = jobmodel.Error
	currentJob.Error = jobmodel.JobError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
		Retry:   true,
	}
	return currentJob
}

func removeWorker(reason string) {

	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()

}

func saveJobState(ctx context.Context, currentJob jobmodel.Job, jobStatus jobmodel.JobStatus) {
	currentJob.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, currentJob); err != nil {
		logger.Error("Failed to update job status", "err", err)
	}
}
