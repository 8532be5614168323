package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benvon/slotfinder/internal/cache"
	"github.com/benvon/slotfinder/internal/config"
	"github.com/benvon/slotfinder/internal/logger"
	"github.com/benvon/slotfinder/internal/services/importer"
	"github.com/benvon/slotfinder/internal/services/schedule"
	"github.com/benvon/slotfinder/internal/services/todoist"
)

// env holds what every subcommand builds from the configuration
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   importer.Store
	closers []func() error
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	zapLogger, err := logger.NewDevelopmentLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	e := &env{cfg: cfg, logger: zapLogger}
	client := todoist.NewClient(cfg.TodoistToken, cfg.TodoistBaseURL, cfg.TodoistTimeout)
	e.store = client

	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			// The CLI works without the cache; it only saves directory reads.
			zapLogger.Warn("redis_unavailable", zap.Error(err))
		} else {
			e.closers = append(e.closers, redisCache.Close)
			e.store = cache.NewCachedStore(client, redisCache, cfg.DirectoryCacheTTL, zapLogger)
		}
	}
	return e, nil
}

func (e *env) scheduleService() *schedule.Service {
	return schedule.NewService(e.store, schedule.Options{
		Timezone:       e.cfg.DefaultTimezone,
		WorkdayStart:   e.cfg.WorkdayStart,
		WorkdayEnd:     e.cfg.WorkdayEnd,
		MinSlotMinutes: e.cfg.MinSlotMinutes,
	}, e.logger)
}

func (e *env) close() {
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	_ = logger.Sync(e.logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
