// Package service wires the adjustment calculator, the batch queue and the
// worker pool behind the methods the HTTP API and the CLI call.
package service

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/sightmark/internal/adapters/mq/queue"
	workerpool "github.com/okian/sightmark/internal/adapters/mq/worker"
	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/okian/sightmark/internal/domain/model"
	"github.com/okian/sightmark/pkg/logger"
	"github.com/okian/sightmark/pkg/metrics"
)

const (
	defaultQueueSize = 1024
	defaultMaxBatch  = 256
)

// Outcome is the result of one batch item.
type Outcome = workerpool.Outcome

// Defaults fill values a request leaves out.
type Defaults struct {
	DistanceM     float64         `json:"distance_m"`
	SightRadiusMM float64         `json:"sight_radius_mm"`
	TargetFaceCM  float64         `json:"target_face_cm"`
	TargetFaces   []float64       `json:"target_faces"`
	Mechanism     model.Mechanism `json:"mechanism"`
}

// Service implements the API dependencies for the sight calculator.
type Service struct {
	mu sync.RWMutex

	// Core components
	calc  *adjust.Calculator
	queue *jobqueue.InMemoryQueue
	pool  *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	maxBatch      int
	mech          model.Mechanism
	distanceM     float64
	sightRadiusMM float64
	faceCM        float64
	faces         []float64

	// State
	started      bool
	calculations atomic.Int64
	rejected     atomic.Int64
	batches      atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the batch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxBatch caps the number of inputs per batch.
func WithMaxBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMechanism sets the sight mechanism. Invalid mechanisms are ignored.
func WithMechanism(m model.Mechanism) Option {
	return func(s *Service) {
		if adjust.ValidateMechanism(m) == nil {
			s.mech = m
		}
	}
}

// WithDefaults sets the values used when a request omits them.
// Non-positive values keep the built-in defaults.
func WithDefaults(distanceM, sightRadiusMM, faceCM float64) Option {
	return func(s *Service) {
		if distanceM > 0 {
			s.distanceM = distanceM
		}
		if sightRadiusMM > 0 {
			s.sightRadiusMM = sightRadiusMM
		}
		if faceCM > 0 {
			s.faceCM = faceCM
		}
	}
}

// WithTargetFaces sets the accepted face diameters.
func WithTargetFaces(faces []float64) Option {
	return func(s *Service) {
		if len(faces) > 0 {
			s.faces = slices.Clone(faces)
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     defaultQueueSize,
		maxBatch:      defaultMaxBatch,
		mech:          adjust.DefaultMechanism(),
		distanceM:     25,
		sightRadiusMM: 880,
		faceCM:        40,
		faces:         []float64{40, 60, 80, 122},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.calc = adjust.NewCalculator(adjust.WithMechanism(s.mech))

	return s
}

// Start creates the batch queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.calc,
		workerpool.WithLogger(s.logger.Named("worker-pool")),
	)
	// The pool outlives the request that started it; Stop ends it.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "sight service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("max_batch", s.maxBatch),
	)

	return nil
}

// Stop closes the queue and waits for the workers to drain it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "sight service stopped")
}

// Calculate runs one adjustment synchronously. It does not need Start.
func (s *Service) Calculate(ctx context.Context, in model.Input) (model.Result, error) {
	if err := ctx.Err(); err != nil {
		return model.Result{}, fmt.Errorf("calculate: %w", err)
	}

	res, err := s.calc.Calculate(in)
	if err != nil {
		s.rejected.Add(1)
		metrics.RecordInvalidInput("calculate")
		s.logger.Debug(ctx, "rejected input", logger.Error(err))
		return model.Result{}, err
	}

	s.calculations.Add(1)
	recordResult(res)
	s.logger.Debug(ctx, "adjustment computed",
		logger.String("windage", string(res.Windage.Direction)),
		logger.Int("windage_clicks", res.Windage.TotalClicks),
		logger.String("elevation", string(res.Elevation.Direction)),
		logger.Int("elevation_clicks", res.Elevation.TotalClicks),
	)
	return res, nil
}

// CalculateBatch fans inputs out to the worker pool and returns one outcome per
// input, ordered by index. A single invalid input fails only its own outcome.
func (s *Service) CalculateBatch(ctx context.Context, inputs []model.Input) ([]Outcome, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()

	switch {
	case !started:
		return nil, ErrNotStarted
	case len(inputs) == 0:
		metrics.RecordBatchRejected("empty")
		return nil, ErrEmptyBatch
	case len(inputs) > s.maxBatch:
		metrics.RecordBatchRejected("too_large")
		return nil, fmt.Errorf("%w: %d items, max %d", ErrBatchTooLarge, len(inputs), s.maxBatch)
	}

	start := time.Now()
	reply := make(chan Outcome, len(inputs))
	for i, in := range inputs {
		j := workerpool.Job{ID: uuid.NewString(), Index: i, Input: in, Reply: reply}
		if !q.Enqueue(ctx, j) {
			if q.IsClosed() {
				return nil, ErrNotStarted
			}
			metrics.RecordBatchRejected("backpressure")
			s.logger.Warn(ctx, "batch rejected by queue",
				logger.Int("size", len(inputs)),
				logger.Int("enqueued", i),
			)
			return nil, ErrBackpressure
		}
	}

	outcomes := make([]Outcome, len(inputs))
	for n := 0; n < len(inputs); n++ {
		select {
		case out := <-reply:
			outcomes[out.Index] = out
			if out.Err != nil {
				s.rejected.Add(1)
				metrics.RecordInvalidInput("batch")
				continue
			}
			s.calculations.Add(1)
			recordResult(out.Result)
		case <-ctx.Done():
			return nil, fmt.Errorf("batch: %w", ctx.Err())
		}
	}

	s.batches.Add(1)
	metrics.RecordBatch(len(inputs))
	s.logger.Debug(ctx, "batch computed",
		logger.Int("size", len(inputs)),
		logger.Duration("took", time.Since(start)),
	)
	return outcomes, nil
}

func recordResult(res model.Result) {
	metrics.RecordAdjustment("windage", string(res.Windage.Direction), res.Windage.TotalClicks)
	metrics.RecordAdjustment("elevation", string(res.Elevation.Direction), res.Elevation.TotalClicks)
}

// Defaults returns the values used for omitted request fields.
func (s *Service) Defaults() Defaults {
	return Defaults{
		DistanceM:     s.distanceM,
		SightRadiusMM: s.sightRadiusMM,
		TargetFaceCM:  s.faceCM,
		TargetFaces:   slices.Clone(s.faces),
		Mechanism:     s.mech,
	}
}

// IsTargetFace reports whether cm is one of the accepted face diameters.
func (s *Service) IsTargetFace(cm float64) bool {
	return slices.Contains(s.faces, cm)
}

// MaxBatch returns the largest accepted batch.
func (s *Service) MaxBatch() int {
	return s.maxBatch
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"maxBatch":     s.maxBatch,
		"calculations": s.calculations.Load(),
		"rejected":     s.rejected.Load(),
		"batches":      s.batches.Load(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["jobsProcessed"] = s.pool.Processed()
		stats["jobsFailed"] = s.pool.Failed()
	}

	return stats
}
