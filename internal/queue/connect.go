package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultConnectAttempts bounds startup dials while RabbitMQ comes up
	DefaultConnectAttempts = 10

	initialConnectDelay = 2 * time.Second
	maxConnectDelay     = 30 * time.Second
)

// connectDelay returns the wait after the given failed attempt (0-based)
func connectDelay(attempt int) time.Duration {
	delay := initialConnectDelay
	for i := 0; i < attempt && delay < maxConnectDelay; i++ {
		delay *= 2
	}
	if delay > maxConnectDelay {
		delay = maxConnectDelay
	}
	return delay
}

// Connect dials RabbitMQ, retrying with exponential backoff until attempts
// are exhausted or ctx is cancelled
func Connect(ctx context.Context, amqpURL string, attempts int, logger *zap.Logger) (*RabbitMQQueue, error) {
	return connect(ctx, attempts, logger, func() (*RabbitMQQueue, error) {
		return NewRabbitMQQueue(amqpURL, logger)
	})
}

func connect(ctx context.Context, attempts int, logger *zap.Logger, dial func() (*RabbitMQQueue, error)) (*RabbitMQQueue, error) {
	if attempts <= 0 {
		attempts = DefaultConnectAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		q, err := dial()
		if err == nil {
			logger.Info("connected_to_rabbitmq", zap.Int("attempt", attempt+1))
			return q, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := connectDelay(attempt)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("rabbitmq unreachable after %d attempts: %w", attempts, lastErr)
}
