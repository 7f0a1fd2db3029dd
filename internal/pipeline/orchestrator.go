package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docforge/internal/config"
	"github.com/dgallion1/docforge/internal/generate"
	"github.com/dgallion1/docforge/internal/store"
)

// cleanupInterval is how often expired jobs and artifacts are swept.
const cleanupInterval = 5 * time.Minute

// Orchestrator manages the export pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	gen   *generate.Client
	store store.Store
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards stopped and the close of queue.
	mu      sync.Mutex
	stopped bool
}

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("pipeline is stopped")

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, gen *generate.Client, st store.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		gen:   gen,
		store: st,
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.gen, o.store, o.log, WorkerOptions{FallbackPdftotext: o.cfg.PDFFallbackPdftotext})
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case now := <-ticker.C:
				o.sweep(workerCtx, now)
			}
		}
	}()
}

// sweep drops idle jobs and artifacts older than the job TTL.
func (o *Orchestrator) sweep(ctx context.Context, now time.Time) {
	jobs := o.jobs.Cleanup(now)
	artifacts, err := o.store.Cleanup(ctx, now.Add(-o.cfg.JobTTL))
	if err != nil {
		o.log.Warn("artifact cleanup failed", "error", err)
	}
	if jobs > 0 || artifacts > 0 {
		o.log.Info("cleanup", "jobs", jobs, "artifacts", artifacts)
	}
}

// Stop gracefully shuts down the pipeline.
// Submit may still be called afterwards and fails with ErrStopped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "stopped")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the artifact store for direct use by API handlers.
func (o *Orchestrator) Store() store.Store {
	return o.store
}

// Generator returns the upstream client, which may be disabled.
func (o *Orchestrator) Generator() *generate.Client {
	return o.gen
}
