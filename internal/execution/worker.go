package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vcheck/internal/config"
	"vcheck/internal/domain"
	"vcheck/internal/metrics"
	"vcheck/internal/ui"
)

// WorkerPool runs several fixtures concurrently. Each fixture gets its own
// deployment, and the cases of one fixture always run one after another.
type WorkerPool struct {
	config   *config.Config
	factory  DeployerFactory
	progress *ui.ProgressBar
	recorder *metrics.Recorder
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(cfg *config.Config, factory DeployerFactory, recorder *metrics.Recorder) *WorkerPool {
	return &WorkerPool{
		config:   cfg,
		factory:  factory,
		recorder: recorder,
	}
}

// SetProgress sets the progress bar for the worker pool
func (wp *WorkerPool) SetProgress(progress *ui.ProgressBar) {
	wp.progress = progress
}

// Execute runs every fixture (no fail-fast).
func (wp *WorkerPool) Execute(ctx context.Context, fixtures []*domain.Fixture) ([]domain.RunReport, time.Duration, error) {
	return wp.ExecuteWithOptions(ctx, fixtures, false)
}

// ExecuteWithOptions runs fixtures, optionally starting no new fixture once one
// has failed. Fixtures already running are always finished. A fatal error
// (collaborator unavailable) cancels the other fixtures between cases and is
// returned together with every report produced so far.
func (wp *WorkerPool) ExecuteWithOptions(ctx context.Context, fixtures []*domain.Fixture, failFast bool) ([]domain.RunReport, time.Duration, error) {
	if len(fixtures) == 0 {
		return nil, 0, nil
	}

	startTime := time.Now()
	workerCount := wp.config.Processors
	if workerCount <= 0 {
		workerCount = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)

	schedCtx, stopScheduling := context.WithCancel(gctx)
	defer stopScheduling()

	reports := make([]*domain.RunReport, len(fixtures))

	var mu sync.Mutex
	var passedCases, failedCases int
	onCase := func(fixture string) func(domain.CaseResult) {
		return func(res domain.CaseResult) {
			wp.recorder.ObserveCase(fixture, res)
			mu.Lock()
			defer mu.Unlock()
			if res.Passed {
				passedCases++
			} else {
				failedCases++
			}
			if wp.progress != nil {
				wp.progress.Update(passedCases, failedCases)
			}
		}
	}

	for i, f := range fixtures {
		if schedCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if schedCtx.Err() != nil {
				return nil
			}

			deployer, err := wp.factory(f)
			if err != nil {
				return fmt.Errorf("fixture %s: %w", f.Name, err)
			}

			zap.L().Info("Running fixture",
				zap.String("fixture", f.Name),
				zap.Int("cases", len(f.Cases)),
				zap.String("collaborator", deployer.Describe()))

			report, err := NewVerifier(f, deployer, wp.config.Timeout).Report(gctx, onCase(f.Name))
			reports[i] = report
			wp.recorder.ObserveRun(report)
			if err != nil {
				return fmt.Errorf("fixture %s: %w", f.Name, err)
			}

			if failFast && !report.AllPassed {
				zap.L().Info("Stopping after failed fixture", zap.String("fixture", f.Name))
				stopScheduling()
			}
			return nil
		})
	}

	err := g.Wait()

	var allReports []domain.RunReport
	for _, r := range reports {
		if r != nil {
			allReports = append(allReports, *r)
		}
	}
	if wp.progress != nil {
		wp.progress.Finish()
	}
	return allReports, time.Since(startTime), err
}
