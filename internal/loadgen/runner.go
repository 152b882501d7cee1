package loadgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/sightmark/internal/domain/adjust"
	"github.com/okian/sightmark/pkg/logger"
)

// ErrMismatch is returned when any server result differs from the local one.
var ErrMismatch = errors.New("server results do not match local calculation")

// maxProblemsLogged caps per-item failure logs when not verbose.
const maxProblemsLogged = 5

// Run executes the complete load run: health check, defaults, submission and
// verification. Stats are returned even when verification fails.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("loadgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("batches", cfg.Batches),
		logger.Int("batchSize", cfg.BatchSize),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	defaults, err := client.Defaults(ctx)
	if err != nil {
		return stats, err
	}
	if len(defaults.TargetFaces) == 0 {
		return stats, fmt.Errorf("server reports no target faces")
	}
	calc := adjust.NewCalculator(adjust.WithMechanism(defaults.Mechanism))

	// Items are generated up front so a seed always maps to the same run.
	gen := NewGenerator(cfg.Seed, defaults.TargetFaces)
	batches := make([][]Item, cfg.Batches)
	for i := range batches {
		batches[i] = gen.Batch(cfg.BatchSize)
	}

	var (
		mu     sync.Mutex
		logged int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))

	for _, items := range batches {
		g.Go(func() error {
			resp, err := client.SubmitBatch(gctx, items)
			var ok, mismatched, failed int
			var problems []string
			if err == nil {
				ok, mismatched, failed, problems = verifyBatch(calc, items, resp)
			}

			mu.Lock()
			defer mu.Unlock()
			stats.BatchesSubmitted++

			switch {
			case errors.Is(err, ErrBackpressure):
				stats.BatchesRejected++
				return nil
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				stats.BatchesFailed++
				log.Warn(gctx, "batch failed", logger.Error(err))
				return nil
			}

			stats.ItemsVerified += ok
			stats.ItemsMismatched += mismatched
			stats.ItemsFailed += failed
			for _, p := range problems {
				if !cfg.Verbose && logged >= maxProblemsLogged {
					break
				}
				logged++
				log.Warn(gctx, p)
			}
			return nil
		})
	}

	err = g.Wait()
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if err != nil {
		return stats, fmt.Errorf("load run cancelled: %w", err)
	}
	if stats.ItemsMismatched > 0 || stats.ItemsFailed > 0 {
		return stats, fmt.Errorf("%w: %d mismatched, %d failed", ErrMismatch, stats.ItemsMismatched, stats.ItemsFailed)
	}
	return stats, nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var itemsPerSecond float64
	if stats.Duration > 0 {
		itemsPerSecond = float64(stats.ItemsVerified) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesRejected", stats.BatchesRejected),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("itemsVerified", stats.ItemsVerified),
		logger.Int("itemsMismatched", stats.ItemsMismatched),
		logger.Int("itemsFailed", stats.ItemsFailed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("itemsPerSecond", itemsPerSecond))
}
