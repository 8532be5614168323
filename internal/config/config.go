package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"
	"gopkg.in/yaml.v3"

	"github.com/benvon/slotfinder/internal/availability"
)

// FileEnvVar names the optional YAML file applied before the environment
const FileEnvVar = "SLOTFINDER_CONFIG"

// Config holds application configuration
type Config struct {
	TodoistToken   string        `yaml:"todoist_api_token"`
	TodoistBaseURL string        `yaml:"todoist_base_url"`
	TodoistTimeout time.Duration `yaml:"todoist_timeout"`

	ServerPort      string `yaml:"server_port"`
	FrontendURL     string `yaml:"frontend_url"`
	EnableHSTS      bool   `yaml:"enable_hsts"`
	RateLimit       string `yaml:"rate_limit"`
	ServerDebugMode bool   `yaml:"server_debug_mode"`
	WorkerDebugMode bool   `yaml:"worker_debug_mode"`

	DefaultTimezone string `yaml:"default_timezone"`
	WorkdayStart    string `yaml:"workday_start"`
	WorkdayEnd      string `yaml:"workday_end"`
	MinSlotMinutes  int    `yaml:"min_slot_minutes"`

	RedisURL                 string        `yaml:"redis_url"`
	DirectoryCacheTTL        time.Duration `yaml:"directory_cache_ttl"`
	DirectoryRefreshSchedule string        `yaml:"directory_refresh_schedule"`

	DatabaseURL      string `yaml:"database_url"`
	RabbitMQURL      string `yaml:"rabbitmq_url"`
	RabbitMQPrefetch int    `yaml:"rabbitmq_prefetch"`

	AuthJWKSURL string `yaml:"auth_jwks_url"`
	AuthIssuer  string `yaml:"auth_issuer"`

	OTELEnabled  bool   `yaml:"otel_enabled"`
	OTELEndpoint string `yaml:"otel_exporter_otlp_endpoint"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		TodoistBaseURL:           "https://api.todoist.com/rest/v2",
		TodoistTimeout:           15 * time.Second,
		ServerPort:               "8080",
		FrontendURL:              "http://localhost:3000",
		RateLimit:                "120-M",
		DefaultTimezone:          "UTC",
		WorkdayStart:             availability.DefaultWorkdayStart,
		WorkdayEnd:               availability.DefaultWorkdayEnd,
		MinSlotMinutes:           availability.DefaultMinSlotMinutes,
		DirectoryCacheTTL:        10 * time.Minute,
		DirectoryRefreshSchedule: "@every 10m",
		RabbitMQPrefetch:         1,
	}
}

// Load loads configuration from the optional YAML file named by
// SLOTFINDER_CONFIG and then from environment variables, which win.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path := getenv(FileEnvVar); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	env := envReader(getenv)
	cfg.TodoistToken = env.getEnv("TODOIST_API_TOKEN", cfg.TodoistToken)
	cfg.TodoistBaseURL = env.getEnv("TODOIST_BASE_URL", cfg.TodoistBaseURL)
	cfg.TodoistTimeout = env.getEnvDuration("TODOIST_TIMEOUT", cfg.TodoistTimeout)
	cfg.ServerPort = env.getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.FrontendURL = env.getEnv("FRONTEND_URL", cfg.FrontendURL)
	cfg.EnableHSTS = env.getEnvBool("ENABLE_HSTS", cfg.EnableHSTS)
	cfg.RateLimit = env.getEnv("RATE_LIMIT", cfg.RateLimit)
	cfg.ServerDebugMode = env.getEnvBool("SERVER_DEBUG_MODE", cfg.ServerDebugMode)
	cfg.WorkerDebugMode = env.getEnvBool("WORKER_DEBUG_MODE", cfg.WorkerDebugMode)
	cfg.DefaultTimezone = env.getEnv("DEFAULT_TIMEZONE", cfg.DefaultTimezone)
	cfg.WorkdayStart = env.getEnv("WORKDAY_START", cfg.WorkdayStart)
	cfg.WorkdayEnd = env.getEnv("WORKDAY_END", cfg.WorkdayEnd)
	cfg.MinSlotMinutes = env.getEnvInt("MIN_SLOT_MINUTES", cfg.MinSlotMinutes)
	cfg.RedisURL = env.getEnv("REDIS_URL", cfg.RedisURL)
	cfg.DirectoryCacheTTL = env.getEnvDuration("DIRECTORY_CACHE_TTL", cfg.DirectoryCacheTTL)
	cfg.DirectoryRefreshSchedule = env.getEnv("DIRECTORY_REFRESH_SCHEDULE", cfg.DirectoryRefreshSchedule)
	cfg.DatabaseURL = env.getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RabbitMQURL = env.getEnv("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQPrefetch = env.getEnvInt("RABBITMQ_PREFETCH", cfg.RabbitMQPrefetch)
	cfg.AuthJWKSURL = env.getEnv("AUTH_JWKS_URL", cfg.AuthJWKSURL)
	cfg.AuthIssuer = env.getEnv("AUTH_ISSUER", cfg.AuthIssuer)
	cfg.OTELEnabled = env.getEnvBool("OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELEndpoint = env.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTELEndpoint)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks required keys and the scheduling defaults
func (c *Config) Validate() error {
	if c.TodoistToken == "" {
		return errors.New("TODOIST_API_TOKEN is required")
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE %q is not a valid IANA zone: %w", c.DefaultTimezone, err)
	}
	if _, err := availability.NewWorkHours(c.WorkdayStart, c.WorkdayEnd); err != nil {
		return fmt.Errorf("invalid WORKDAY_START/WORKDAY_END: %w", err)
	}
	if c.MinSlotMinutes <= 0 {
		return fmt.Errorf("MIN_SLOT_MINUTES must be positive, got %d", c.MinSlotMinutes)
	}
	if c.TodoistTimeout <= 0 {
		return fmt.Errorf("TODOIST_TIMEOUT must be positive, got %s", c.TodoistTimeout)
	}
	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT %q: %w", c.RateLimit, err)
	}
	if c.RabbitMQPrefetch <= 0 {
		c.RabbitMQPrefetch = 1
	}
	return nil
}

// AsyncImportEnabled reports whether both Postgres and RabbitMQ are configured
func (c *Config) AsyncImportEnabled() bool {
	return c.DatabaseURL != "" && c.RabbitMQURL != ""
}

// AuthEnabled reports whether bearer tokens are verified
func (c *Config) AuthEnabled() bool {
	return c.AuthJWKSURL != ""
}

type envReader func(string) string

func (e envReader) getEnv(key, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) getEnvBool(key string, defaultValue bool) bool {
	if value := e(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func (e envReader) getEnvInt(key string, defaultValue int) int {
	if value := e(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e envReader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := e(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
