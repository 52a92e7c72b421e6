package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/RagBot/internal/adapter/utils"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/jobModel"
	"github.com/akolanti/RagBot/internal/metrics"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore

	logger *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		logger:            logger_i.NewLogger("JobService"),
	}
}

// EnqueueRebuild queues a full index rebuild from docsDir and returns the
// queued job record.
func (s *Service) EnqueueRebuild(traceId string, trigger string, docsDir string) jobModel.Job {
	newJob := jobModel.Job{
		Id:          utils.GetNewUUID(),
		TraceId:     traceId,
		JobType:     jobModel.JobTypeRebuild,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.RebuildInit,
		JobPayload: jobModel.JobPayload{
			DocsDir: docsDir,
			Trigger: trigger,
		},
	}
	s.enqueue(newJob)
	return newJob
}

// EnqueueSync queues a repository sync: clone the configured docs repo,
// then rebuild from the clone.
func (s *Service) EnqueueSync(traceId string, trigger string) jobModel.Job {
	newJob := jobModel.Job{
		Id:          utils.GetNewUUID(),
		TraceId:     traceId,
		JobType:     jobModel.JobTypeSync,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.RepoCloneCall,
		JobPayload: jobModel.JobPayload{
			RepoURL: config.DocsRepoURL,
			Trigger: trigger,
		},
	}
	s.enqueue(newJob)
	return newJob
}

func (s *Service) enqueue(newJob jobModel.Job) {
	log := s.logger.With("traceId", newJob.TraceId, "job id", newJob.Id)

	// the record exists before the job runs, so a status poll right after
	// the 202 already finds it
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.TraceId)
	if err := s.JobStore.SaveJob(ctx, newJob); err != nil {
		log.Error("Failed to save queued job", "error", err)
	}

	metrics.IncrementJobsInQueue()
	s.JobChannel <- newJob //blocking send to prevent the system from being overwhelmed
	log.Info("Queued job", "type", newJob.JobType)

	// rebuilds and syncs are long-running, always offer the pool an extra
	// worker; the pool retires it again once idle
	accurateCount := atomic.AddInt64(&s.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 ||
		newJob.JobType == jobModel.JobTypeRebuild || newJob.JobType == jobModel.JobTypeSync {
		metrics.StartDispatcherSignalCount()
		s.DispatcherChannel <- true
	}
}

// QueueDepth reports the jobs waiting in the channel buffer.
func (s *Service) QueueDepth() int {
	return len(s.JobChannel)
}
