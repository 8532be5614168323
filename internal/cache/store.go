package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/slotfinder/internal/models"
	"github.com/benvon/slotfinder/internal/services/importer"
)

const (
	// DirectoryKey prefixes the Redis keys holding cached directories. The
	// entry for generation N lives at DirectoryKey + ":N".
	DirectoryKey = "slotfinder:directory"
	// GenerationKey holds the current directory generation
	GenerationKey = "slotfinder:directory:generation"
	// DefaultTTL applies when no TTL is configured
	DefaultTTL = 10 * time.Minute
)

// CachedStore serves LoadDirectory from the cache backend and passes every
// other call through to the wrapped store. Each caller gets its own decoded
// copy of the directory.
//
// Entries are keyed by generation. Invalidate bumps the generation, so a load
// that started before it writes to a key no reader uses any more.
type CachedStore struct {
	importer.Store
	backend Backend
	ttl     time.Duration
	logger  *zap.Logger
}

var (
	_ importer.Store       = (*CachedStore)(nil)
	_ importer.Invalidator = (*CachedStore)(nil)
)

// NewCachedStore wraps store with a directory cache
func NewCachedStore(store importer.Store, backend Backend, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{Store: store, backend: backend, ttl: ttl, logger: logger}
}

// LoadDirectory returns the cached directory, loading and caching it on a
// miss. Cache errors fall back to the wrapped store.
func (c *CachedStore) LoadDirectory(ctx context.Context) (*models.Directory, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("directory_cache_generation_failed", zap.Error(err))
		return c.Store.LoadDirectory(ctx)
	}

	raw, err := c.backend.Get(ctx, directoryKey(gen))
	switch {
	case err == nil:
		var dir models.Directory
		jerr := json.Unmarshal(raw, &dir)
		if jerr == nil {
			return &dir, nil
		}
		c.logger.Warn("directory_cache_corrupt", zap.Error(jerr))
	case !errors.Is(err, ErrMiss):
		c.logger.Warn("directory_cache_get_failed", zap.Error(err))
	}

	dir, err := c.Store.LoadDirectory(ctx)
	if err != nil {
		return nil, err
	}
	c.put(ctx, gen, dir)
	return dir, nil
}

// Warm reloads the directory from the wrapped store into the cache
func (c *CachedStore) Warm(ctx context.Context) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return fmt.Errorf("failed to read directory generation: %w", err)
	}
	dir, err := c.Store.LoadDirectory(ctx)
	if err != nil {
		return fmt.Errorf("failed to load directory: %w", err)
	}
	c.put(ctx, gen, dir)
	return nil
}

// Invalidate retires the cached directory by moving to the next generation
func (c *CachedStore) Invalidate(ctx context.Context) error {
	if _, err := c.backend.Incr(ctx, GenerationKey); err != nil {
		return fmt.Errorf("failed to invalidate directory cache: %w", err)
	}
	return nil
}

// generation reads the current generation; an absent key is generation 0
func (c *CachedStore) generation(ctx context.Context) (int64, error) {
	raw, err := c.backend.Get(ctx, GenerationKey)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid directory generation %q: %w", raw, err)
	}
	return gen, nil
}

func directoryKey(gen int64) string {
	return DirectoryKey + ":" + strconv.FormatInt(gen, 10)
}

func (c *CachedStore) put(ctx context.Context, gen int64, dir *models.Directory) {
	raw, err := json.Marshal(dir)
	if err != nil {
		c.logger.Warn("directory_cache_encode_failed", zap.Error(err))
		return
	}
	if err := c.backend.Set(ctx, directoryKey(gen), raw, c.ttl); err != nil {
		c.logger.Warn("directory_cache_set_failed", zap.Error(err))
	}
}
