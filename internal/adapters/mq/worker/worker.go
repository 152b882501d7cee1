// Package worker runs batch calculation jobs off the queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/sightmark/internal/adapters/mq/queue"
	"github.com/okian/sightmark/internal/domain/model"
	"github.com/okian/sightmark/pkg/logger"
	"github.com/okian/sightmark/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job and Outcome are the queue payload and reply types.
type (
	Job     = queue.Job
	Outcome = queue.Outcome
)

// Calculator computes one adjustment.
type Calculator interface {
	Calculate(in model.Input) (model.Result, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Pool runs a fixed number of workers under one errgroup.
type Pool struct {
	size  int
	queue Queue
	calc  Calculator

	mu      sync.Mutex
	group   *errgroup.Group
	cancel  context.CancelFunc
	started bool

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses runtime.NumCPU().
func NewPool(workerCount int, q Queue, calc Calculator, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		size:   workerCount,
		queue:  q,
		calc:   calc,
		logger: logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}

	metrics.UpdateWorkerCount(workerCount)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Processed returns the number of jobs that produced a result.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns the number of jobs that produced an error.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < p.size; i++ {
		name := "worker-" + strconv.Itoa(i)
		p.group.Go(func() error {
			return p.run(ctx, name)
		})
	}
	p.started = true
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", p.size))
}

// run processes jobs until the queue is closed and drained or ctx is done.
func (p *Pool) run(ctx context.Context, name string) error {
	jobs := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j, ok := <-jobs:
			if !ok {
				return nil
			}
			metrics.RecordQueueDequeue()
			p.process(ctx, name, j)
		}
	}
}

func (p *Pool) process(ctx context.Context, name string, j Job) { //nolint:gocritic // hugeParam: Job is received by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res, err := p.calc.Calculate(j.Input)
	out := Outcome{Index: j.Index, Result: res, Err: err}
	if err != nil {
		p.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "calculation_error")
		p.logger.Debug(ctx, "job failed",
			logger.String("worker", name),
			logger.String("job_id", j.ID),
			logger.Int("index", j.Index),
			logger.Error(err),
		)
	} else {
		p.processed.Add(1)
		metrics.RecordWorkerJobProcessed()
	}

	select {
	case j.Reply <- out:
	case <-ctx.Done():
	}
}

// Shutdown closes the queue if it can be closed, lets the workers drain it,
// and waits for them or for ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	p.mu.Lock()
	group, cancel, started := p.group, p.cancel, p.started
	p.started = false
	p.mu.Unlock()
	if !started {
		return nil
	}
	defer cancel()

	shutdownCtx, stop := context.WithTimeout(ctx, poolShutdownTimeout)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("worker pool: %w", err)
		}
		p.logger.Info(ctx, "worker pool stopped",
			logger.Any("processed", p.Processed()),
			logger.Any("failed", p.Failed()),
		)
		return nil
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}
}
