package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var clearedWindows = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "castket_sweep_cleared_windows_total",
	Help: "Number of expired strike windows cleared by the sweep job, by window (violation, suspension)",
}, []string{"window"})

var sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "castket_sweep_runs_total",
	Help: "Number of sweep runs, by status",
}, []string{"status"})

// Sweeper clears expired violation and suspension windows in bulk and
// reports how many rows each reset touched.
type Sweeper interface {
	SweepExpiredWindows(
		ctx context.Context,
		now time.Time,
		violationWindow time.Duration,
		suspensionWindow time.Duration,
	) (int64, int64, error)
}

type Job struct {
	sweeper          Sweeper
	violationWindow  time.Duration
	suspensionWindow time.Duration
	now              func() time.Time
	logger           *zap.Logger
}

func New(sweeper Sweeper, violationWindow, suspensionWindow time.Duration, logger *zap.Logger) *Job {
	if violationWindow <= 0 {
		violationWindow = 30 * time.Minute
	}
	if suspensionWindow <= 0 {
		suspensionWindow = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		sweeper:          sweeper,
		violationWindow:  violationWindow,
		suspensionWindow: suspensionWindow,
		now:              time.Now,
		logger:           logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.sweeper == nil {
		return fmt.Errorf("sweeper is nil")
	}

	violations, suspensions, err := j.sweeper.SweepExpiredWindows(ctx, j.now().UTC(), j.violationWindow, j.suspensionWindow)
	clearedWindows.WithLabelValues("violation").Add(float64(violations))
	clearedWindows.WithLabelValues("suspension").Add(float64(suspensions))
	if err != nil {
		sweepRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("sweep expired windows: %w", err)
	}
	sweepRuns.WithLabelValues("ok").Inc()

	if violations > 0 || suspensions > 0 {
		j.logger.Info("sweep expired windows completed",
			zap.Int64("violation_windows", violations),
			zap.Int64("suspension_windows", suspensions),
		)
	}
	return nil
}

// Loop runs the job once immediately and then on every tick until ctx is done.
// A failed run is logged and the loop keeps going.
func (j *Job) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *Job) runOnce(ctx context.Context) {
	if err := j.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		j.logger.Warn("sweep run failed", zap.Error(err))
	}
}
