package services

import (
	"context"
	"time"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
)

// SyncScheduler triggers the synchronizer once after an initial delay and
// then on a fixed interval until the context ends. Failed runs are logged
// and retried on the next tick.
type SyncScheduler struct {
	synchronizer ports.CatalogSynchronizer
	interval     time.Duration
	initialDelay time.Duration
	logger       logger.Logger
}

func NewSyncScheduler(
	synchronizer ports.CatalogSynchronizer,
	interval, initialDelay time.Duration,
	log logger.Logger,
) *SyncScheduler {
	return &SyncScheduler{
		synchronizer: synchronizer,
		interval:     interval,
		initialDelay: initialDelay,
		logger:       log.Component("sync-scheduler"),
	}
}

// Run blocks until ctx is cancelled.
func (s *SyncScheduler) Run(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("initial_delay", s.initialDelay).
		Msg("catalog sync scheduler started")
	defer s.logger.Info().Msg("catalog sync scheduler stopped")

	delay := time.NewTimer(s.initialDelay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SyncScheduler) tick(ctx context.Context) {
	result, err := s.synchronizer.Sync(ctx)
	if err != nil {
		if IsSyncInProgress(err) {
			s.logger.Info().Msg("catalog sync already running, skipping tick")

			return
		}

		if ctx.Err() != nil {
			return
		}

		s.logger.Error().Err(err).Msg("scheduled catalog sync failed")

		return
	}

	s.logger.Debug().
		Str("run_id", result.Report.RunID).
		Int("touched", len(result.TouchedDevices())).
		Msg("scheduled catalog sync finished")
}
