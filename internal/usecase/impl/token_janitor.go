package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"smartblog/config"
	"smartblog/internal/domain/repository"

	"go.uber.org/fx"
)

const defaultCleanupInterval = time.Hour

// TokenJanitor periodically removes expired verification tokens.
type TokenJanitor struct {
	repo     repository.VerificationTokenRepository
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// TokenJanitorParams holds dependencies for TokenJanitor, injected by Fx.
type TokenJanitorParams struct {
	fx.In

	Lc     fx.Lifecycle
	Repo   repository.VerificationTokenRepository
	Config *config.Config
	Logger *slog.Logger
}

// NewTokenJanitor creates the janitor and ties its loop to the application lifecycle.
func NewTokenJanitor(params TokenJanitorParams) *TokenJanitor {
	interval := defaultCleanupInterval
	if params.Config != nil && params.Config.Auth != nil && params.Config.Auth.VerificationCleanupInterval > 0 {
		interval = params.Config.Auth.VerificationCleanupInterval
	}

	janitor := &TokenJanitor{
		repo:     params.Repo,
		interval: interval,
		now:      time.Now,
		logger:   params.Logger,
	}

	params.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			janitor.Start()

			return nil
		},
		OnStop: func(context.Context) error {
			janitor.Stop()

			return nil
		},
	})

	return janitor
}

// Start runs the cleanup loop in the background.
func (j *TokenJanitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.Sweep(ctx)
			}
		}
	}()
}

// Stop ends the loop and waits for a running sweep to finish.
func (j *TokenJanitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

// Sweep deletes every verification token expired at the current time.
func (j *TokenJanitor) Sweep(ctx context.Context) int64 {
	deleted, err := j.repo.DeleteExpired(ctx, j.now())
	if err != nil {
		j.logger.Error("Failed to delete expired verification tokens", slog.Any("error", err))

		return 0
	}

	if deleted > 0 {
		j.logger.Info("Deleted expired verification tokens", slog.Int64("count", deleted))
	}

	return deleted
}
