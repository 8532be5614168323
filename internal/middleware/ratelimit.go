package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/benvon/slotfinder/internal/request"
)

const (
	// DefaultRateLimit is the per-client rate in ulule's formatted notation
	DefaultRateLimit = "120-M"

	rateLimitPrefix = "slotfinder_limiter"
)

// RateLimit limits requests per client IP. Counters live in Redis when a
// client is given so replicas share them, otherwise in process memory.
func RateLimit(redisClient *redis.Client, formattedRate string, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if formattedRate == "" {
		formattedRate = DefaultRateLimit
	}
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formattedRate, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}

	instance := limiter.New(store, rate)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded", logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			if logger != nil {
				logger.Warn("rate_limit_store_error", zap.Error(err))
			}
			respondErrorJSON(w, r, http.StatusServiceUnavailable, "Service Unavailable", "Rate limiter unavailable", logger)
		}),
	)
	return mw.Handler, nil
}
