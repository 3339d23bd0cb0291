package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	_ "github.com/redmonkez12/eventhub-auth/docs" // Swagger docs (generated)
	"github.com/redmonkez12/eventhub-auth/internal/auth"
	"github.com/redmonkez12/eventhub-auth/internal/config"
	"github.com/redmonkez12/eventhub-auth/internal/database"
	"github.com/redmonkez12/eventhub-auth/internal/email"
	httpServer "github.com/redmonkez12/eventhub-auth/internal/http"
	"github.com/redmonkez12/eventhub-auth/internal/logging"
	"github.com/redmonkez12/eventhub-auth/internal/metrics"
	"github.com/redmonkez12/eventhub-auth/internal/notification"
	"github.com/redmonkez12/eventhub-auth/internal/token"
	"github.com/redmonkez12/eventhub-auth/internal/user"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().Bool("migrate", false, "Create the schema before serving")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	autoMigrate, _ := cmd.Flags().GetBool("migrate")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"notify_queue", cfg.Notification.Queue,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]httpServer.HealthCheck{}

	// Initialize user directory
	users, closeDB, err := initDirectory(ctx, cfg.Database, autoMigrate, checks)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeDB()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Token codecs
	links, err := token.NewJWTCodec(cfg.Auth.LinkTokenSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize link token codec: %w", err)
	}
	sessions, err := token.NewPasetoCodec(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session token codec: %w", err)
	}

	// Notification queue and workers
	queue, closeQueue, err := initQueue(ctx, cfg, checks)
	if err != nil {
		return fmt.Errorf("failed to initialize notification queue: %w", err)
	}
	defer closeQueue()

	emailService := email.NewService(cfg.Email, cfg.Auth)
	dispatcher := notification.NewDispatcher(queue, emailService, logger, m, notification.Config{
		Workers:     cfg.Notification.Workers,
		MaxRetries:  uint64(max(cfg.Notification.MaxRetries, 0)),
		RetryBase:   cfg.Notification.RetryBase,
		PushTimeout: cfg.Notification.PushTimeout,
	})
	dispatcher.Start(logging.WithLogger(context.Background(), logger))
	defer dispatcher.Stop()

	// Initialize auth service
	authService := auth.NewService(
		users,
		newHasher(cfg.Auth),
		links,
		sessions,
		dispatcher,
		m,
		logger,
		auth.Config{
			SessionTokenDuration:      cfg.Auth.SessionTokenDuration,
			VerificationTokenDuration: cfg.Auth.VerificationTokenDuration,
			ResetTokenDuration:        cfg.Auth.ResetTokenDuration,
			MinPasswordLength:         cfg.Auth.MinPasswordLength,
		},
	)

	// Initialize HTTP handlers
	authHandler := auth.NewHandler(authService, cfg.Email.FrontendURL)
	authMiddleware := auth.NewMiddleware(authService)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, registry, checks, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func initDirectory(ctx context.Context, cfg config.DatabaseConfig, autoMigrate bool, checks map[string]httpServer.HealthCheck) (user.Directory, func(), error) {
	if cfg.Driver == config.DriverMemory {
		return user.NewMemoryDirectory(), func() {}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	if autoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	checks["database"] = func(ctx context.Context) error { return db.PingContext(ctx) }
	return user.NewRepository(db), closeBun(db), nil
}

func closeBun(db *bun.DB) func() {
	return func() { _ = db.Close() }
}

func initQueue(ctx context.Context, cfg *config.Config, checks map[string]httpServer.HealthCheck) (notification.Queue, func(), error) {
	if cfg.Notification.Queue == config.QueueMemory {
		return notification.NewMemoryQueue(cfg.Notification.QueueSize), func() {}, nil
	}

	client, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}

	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return notification.NewRedisQueue(client, cfg.Notification.RedisKey), func() { _ = client.Close() }, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

func newHasher(cfg config.AuthConfig) auth.Hasher {
	if cfg.PasswordHasher == config.HasherBcrypt {
		return auth.NewBcryptHasher(cfg.BcryptCost)
	}
	return auth.NewArgon2Hasher(auth.DefaultArgon2Params)
}
