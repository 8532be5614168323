package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/slotfinder/api"
	"github.com/benvon/slotfinder/internal/cache"
	"github.com/benvon/slotfinder/internal/config"
	"github.com/benvon/slotfinder/internal/database"
	"github.com/benvon/slotfinder/internal/handlers"
	"github.com/benvon/slotfinder/internal/logger"
	"github.com/benvon/slotfinder/internal/middleware"
	"github.com/benvon/slotfinder/internal/queue"
	"github.com/benvon/slotfinder/internal/services/auth"
	"github.com/benvon/slotfinder/internal/services/importer"
	"github.com/benvon/slotfinder/internal/services/schedule"
	"github.com/benvon/slotfinder/internal/services/todoist"
	"github.com/benvon/slotfinder/internal/telemetry"
)

const serviceName = "slotfinder-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("default_timezone", cfg.DefaultTimezone),
		zap.Bool("async_import", cfg.AsyncImportEnabled()),
		zap.Bool("auth_enabled", cfg.AuthEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, serviceName, handlers.Version, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				telemetry.InstallPropagator()
				tracingEnabled = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	client := todoist.NewClient(cfg.TodoistToken, cfg.TodoistBaseURL, cfg.TodoistTimeout)
	deps := map[string]handlers.Pinger{"todoist": client}

	// Redis is optional; without it the directory is loaded per request and
	// rate limits are kept in memory.
	var store importer.Store = client
	var redisCache *cache.Redis
	if cfg.RedisURL != "" {
		redisCache, err = cache.NewRedis(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
		deps["redis"] = redisCache

		cached := cache.NewCachedStore(client, redisCache, cfg.DirectoryCacheTTL, zapLogger)
		warmer := cache.NewWarmer(cached, cfg.DirectoryRefreshSchedule, zapLogger)
		if err := warmer.Start(ctx); err != nil {
			zapLogger.Fatal("failed_to_start_directory_warmer", zap.Error(err))
		}
		defer warmer.Stop()
		store = cached
	}

	scheduleService := schedule.NewService(store, schedule.Options{
		Timezone:       cfg.DefaultTimezone,
		WorkdayStart:   cfg.WorkdayStart,
		WorkdayEnd:     cfg.WorkdayEnd,
		MinSlotMinutes: cfg.MinSlotMinutes,
	}, zapLogger)
	importService := importer.NewService(store, zapLogger)

	var importOpts []handlers.ImportHandlerOption
	if cfg.AsyncImportEnabled() {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
			}
		}()
		if err := db.Migrate(ctx); err != nil {
			zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
		}
		zapLogger.Info("connected_to_database")
		deps["postgres"] = handlers.PingFunc(db.PingContext)

		jobQueue, err := queue.Connect(ctx, cfg.RabbitMQURL, queue.DefaultConnectAttempts, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		deps["rabbitmq"] = handlers.PingFunc(jobQueue.HealthCheck)

		importOpts = append(importOpts, handlers.WithImportJobs(database.NewImportJobRepository(db), jobQueue))
	}

	var limiterClient *redis.Client
	if redisCache != nil {
		limiterClient = redisCache.Client()
	}
	rateLimitMW, err := middleware.RateLimit(limiterClient, cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	scheduleHandler := handlers.NewScheduleHandler(scheduleService, zapLogger)
	importHandler := handlers.NewImportHandler(importService, zapLogger, importOpts...)
	healthChecker := handlers.NewHealthChecker(deps)

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, first registered
	// outermost.
	if tracingEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", handlers.VersionInfo).Methods("GET")
	handlers.NewOpenAPIHandler(api.OpenAPISpec).RegisterRoutes(r)

	protected := []mux.MiddlewareFunc{rateLimitMW}
	if cfg.AuthEnabled() {
		verifier := auth.NewVerifier(auth.NewJWKSManager(auth.DefaultJWKSTTL), cfg.AuthJWKSURL, cfg.AuthIssuer)
		protected = []mux.MiddlewareFunc{middleware.Auth(verifier, zapLogger), rateLimitMW}
		zapLogger.Info("bearer_auth_enabled", zap.String("issuer", cfg.AuthIssuer))
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(protected...)
	scheduleHandler.RegisterRoutes(apiRouter)
	importHandler.RegisterRoutes(apiRouter)

	// Path used by existing schedule import clients
	legacyRouter := r.PathPrefix("/import_schedule_to_todoist").Subrouter()
	legacyRouter.Use(protected...)
	legacyRouter.HandleFunc("", importHandler.Import).Methods("POST")

	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
