package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRefreshSchedule re-warms the directory every ten minutes
const DefaultRefreshSchedule = "@every 10m"

const warmTimeout = 30 * time.Second

// Warmer periodically refreshes the cached directory
type Warmer struct {
	cron     *cron.Cron
	store    *CachedStore
	schedule string
	logger   *zap.Logger
}

// NewWarmer creates a warmer; schedule uses standard cron syntax or descriptors
// such as "@every 10m"
func NewWarmer(store *CachedStore, schedule string, logger *zap.Logger) *Warmer {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Warmer{
		cron:     cron.New(),
		store:    store,
		schedule: schedule,
		logger:   logger,
	}
}

// Start warms the cache once and schedules periodic refreshes
func (w *Warmer) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc(w.schedule, func() {
		w.warm(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", w.schedule, err)
	}

	w.warm(ctx)
	w.cron.Start()
	w.logger.Info("directory_warmer_started", zap.String("schedule", w.schedule))
	return nil
}

// Stop waits for a running refresh to finish
func (w *Warmer) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("directory_warmer_stopped")
}

func (w *Warmer) warm(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, warmTimeout)
	defer cancel()

	start := time.Now()
	if err := w.store.Warm(ctx); err != nil {
		w.logger.Warn("directory_warm_failed", zap.Error(err))
		return
	}
	w.logger.Debug("directory_warmed", zap.Duration("duration", time.Since(start)))
}
