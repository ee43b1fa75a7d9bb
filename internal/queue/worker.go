package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler processes one job
type Handler func(ctx context.Context, job *Job) error

// Observer receives the outcome of every processed job
type Observer interface {
	ObserveJob(jobType string, err error, duration time.Duration)
}

// Worker runs a pool of goroutines draining a Source
type Worker struct {
	source      Source
	handlers    map[JobType]Handler
	concurrency int
	pollTimeout time.Duration
	logger      *zap.Logger
	observer    Observer

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewWorker creates a worker pool with concurrency goroutines
func NewWorker(source Source, concurrency int, logger *zap.Logger, observer Observer) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		source:      source,
		handlers:    make(map[JobType]Handler),
		concurrency: concurrency,
		pollTimeout: 2 * time.Second,
		logger:      logger,
		observer:    observer,
	}
}

// RegisterHandler routes jobs of jobType to handler. Register before Start.
func (w *Worker) RegisterHandler(jobType JobType, handler Handler) {
	w.handlers[jobType] = handler
}

// Start launches the pool. It is a no-op if the pool is already running.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.running = true

	w.logger.Info("starting job workers", zap.Int("workers", w.concurrency))
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
}

// Stop cancels the pool and waits for in-flight jobs to return
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.running = false
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("job workers stopped")
}

func (w *Worker) loop(ctx context.Context, id int) {
	defer w.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		job, err := w.source.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to dequeue job", zap.Int("worker", id), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *Job) {
	start := time.Now()
	err := w.run(ctx, job)
	if w.observer != nil {
		w.observer.ObserveJob(string(job.Type), err, time.Since(start))
	}

	// Bookkeeping must survive shutdown so the job is not lost.
	bookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err != nil {
		w.logger.Warn("job failed",
			zap.String("job_id", job.ID),
			zap.String("type", string(job.Type)),
			zap.Int("attempt", job.Attempts),
			zap.Error(err),
		)
		if ferr := w.source.Fail(bookCtx, job, err); ferr != nil {
			w.logger.Error("failed to record job failure", zap.String("job_id", job.ID), zap.Error(ferr))
		}
		return
	}

	if cerr := w.source.Complete(bookCtx, job); cerr != nil {
		w.logger.Error("failed to complete job", zap.String("job_id", job.ID), zap.Error(cerr))
	}
}

func (w *Worker) run(ctx context.Context, job *Job) (err error) {
	handler, ok := w.handlers[job.Type]
	if !ok {
		return fmt.Errorf("no handler registered for job type: %s", job.Type)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()
	return handler(ctx, job)
}
