package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/RagBot/internal/config"
	jobmodel "github.com/akolanti/RagBot/internal/domain/jobModel"
	"github.com/akolanti/RagBot/internal/index"
	"github.com/akolanti/RagBot/internal/job"
	"github.com/akolanti/RagBot/internal/metrics"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

// IndexRunner is the slice of the index builder the pool needs.
type IndexRunner interface {
	Build(ctx context.Context, docsDir string) (index.BuildResult, error)
	NotifyStages(fn func(jobmodel.InternalStatus))
}

// RepoFetcher clones the docs repository for a sync job.
type RepoFetcher interface {
	FetchDocs(ctx context.Context) (string, func(), error)
}

var (
	_jobService        *job.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             *logger_i.Logger
	_builder           IndexRunner
	_fetcher           RepoFetcher
	minWorkerCount     = config.MinWorkerCount
	idleWorkerTimeout  = config.IdleWorkerTimeout //var so tests can shorten it
)

func InitServices(jobService *job.Service, builder IndexRunner, fetcher RepoFetcher) {
	_jobService = jobService
	_builder = builder
	_fetcher = fetcher
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool")
	go dispatcher()
}

// CurrentCount reports the live worker count, used by the config endpoint.
func CurrentCount() int64 {
	return atomic.LoadInt64(&currentWorkerCount)
}

func dispatcher() {
	createWorker()
	logger.Info("Dispatcher started")
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
			logger.Info("Creating new worker", "WorkerCount :", currentWorkerCount)
			createWorker()
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	go worker()
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	logger.Info("Created new worker")
}

func worker() {
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			executeJob(currentJob)
			metrics.DecrementJobsInQueue()

		case <-stopWorkerChannel:
			removeWorker("Stop worker signal received")

			return

		case <-time.After(idleWorkerTimeout):
			// Worker was idle for too long, retire while the pool sits
			// above its floor
			if atomic.LoadInt64(&currentWorkerCount) > atomic.LoadInt64(&minWorkerCount) {
				removeWorker("Idle worker timeout - Removed worker")
				return
			}
		}
	}
}
