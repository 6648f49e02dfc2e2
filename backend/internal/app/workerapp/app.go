package workerapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kaze3114/castket/backend/internal/config"
	"github.com/kaze3114/castket/backend/internal/jobs/sweep"
	pgrepo "github.com/kaze3114/castket/backend/internal/repo/postgres"
)

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	sweepJob *sweep.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for worker app: %w", err)
	}

	moderationRepo := pgrepo.NewModerationRepo(pool)
	sweepJob := sweep.New(
		moderationRepo,
		cfg.Moderation.ViolationWindow,
		cfg.Moderation.SuspensionWindow,
		logger.Named("sweep"),
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		postgres: pool,
		sweepJob: sweepJob,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("worker app started", zap.Duration("sweep_interval", a.cfg.Sweep.Interval))

	err := a.sweepJob.Loop(ctx, a.cfg.Sweep.Interval)
	if err == nil || errors.Is(err, context.Canceled) {
		a.logger.Info("worker app stopped")
		return nil
	}
	return err
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
