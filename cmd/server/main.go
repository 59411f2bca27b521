package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/HammerMeetNail/socialgraph/internal/auth"
	"github.com/HammerMeetNail/socialgraph/internal/config"
	"github.com/HammerMeetNail/socialgraph/internal/database"
	"github.com/HammerMeetNail/socialgraph/internal/handlers"
	"github.com/HammerMeetNail/socialgraph/internal/logging"
	"github.com/HammerMeetNail/socialgraph/internal/metrics"
	"github.com/HammerMeetNail/socialgraph/internal/middleware"
	"github.com/HammerMeetNail/socialgraph/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.Server.Debug {
		level = logging.LevelDebug
	}
	logger.SetLevel(level)
	logging.SetDefaultLevel(level)
	logger.Debug("Debug logging enabled", map[string]interface{}{"env": cfg.Server.Environment})

	logger.Info("Starting socialgraph server...")

	ctx := context.Background()

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(ctx, cfg.Database.DSN(), database.PoolOptions{})
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...", map[string]interface{}{"dir": cfg.Server.MigrationsDir})
	migrator, err := database.NewMigrator(cfg.Database.DSN(), cfg.Server.MigrationsDir)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	if version, _, err := migrator.Version(); err == nil {
		logger.Info("Migrations completed", map[string]interface{}{"version": version})
	}
	_ = migrator.Close()

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{"addr": cfg.Redis.Addr()})
	redisDB, err := database.NewRedisDB(ctx, database.RedisOptions{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Initialize services
	store := services.NewPostgresStore(services.NewPoolAdapter(db.Pool))
	broker := services.NewNotificationBroker(services.NewRedisAdapter(redisDB.Client))

	notificationService := services.NewNotificationService(store, broker)
	notificationService.SetMetrics(m)
	friendshipService := services.NewFriendshipService(store, notificationService)
	friendshipService.SetMetrics(m)
	blockService := services.NewBlockService(store)
	blockService.SetMetrics(m)
	chatService := services.NewChatService(store, notificationService)
	chatService.SetMetrics(m)
	contentService := services.NewContentService(store, notificationService, services.ContentConfig{
		ReportHideThreshold: cfg.Content.ReportHideThreshold,
		Trending: services.TrendingWeights{
			Like:    cfg.Content.TrendingLikeWeight,
			Comment: cfg.Content.TrendingCommentWeight,
			Window:  cfg.Content.TrendingWindow,
		},
	})
	contentService.SetMetrics(m)
	userService := services.NewUserService(store)

	// Middleware
	authenticator := middleware.NewAuthenticator(auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer))
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty; every authenticated request will be rejected")
	}
	friendRequestLimit := resolveRateLimit("FRIEND_REQUEST_RATE_LIMIT", cfg.RateLimit.FriendRequestsPerMinute, defaultFriendRequestRateLimit, logger, os.LookupEnv)
	reportLimit := resolveRateLimit("REPORT_RATE_LIMIT", cfg.RateLimit.ReportsPerMinute, defaultReportRateLimit, logger, os.LookupEnv)

	router := newRouter(routes{
		auth:                 authenticator,
		friendRequestLimiter: middleware.NewRateLimiter(redisDB.Client, friendRequestLimit, time.Minute, "ratelimit:friend_requests:", middleware.KeyByUser, true),
		reportLimiter:        middleware.NewRateLimiter(redisDB.Client, reportLimit, time.Minute, "ratelimit:reports:", middleware.KeyByUser, true),
		health:               handlers.NewHealthHandler(db, redisDB),
		metrics:              metrics.Handler(registry),
		users:                handlers.NewUserHandler(userService, contentService),
		friends:              handlers.NewFriendHandler(friendshipService),
		blocks:               handlers.NewBlockHandler(blockService),
		notifications:        handlers.NewNotificationHandler(notificationService, broker, cfg.CORS.AllowedOrigins),
		chats:                handlers.NewChatHandler(chatService),
		content:              handlers.NewContentHandler(contentService),
	})

	// Build middleware chain (order matters: outermost last)
	var handler http.Handler = router
	if len(cfg.CORS.AllowedOrigins) > 0 {
		handler = gorillahandlers.CORS(
			gorillahandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
			gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
			gorillahandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		)(handler)
	}
	handler = gorillahandlers.RecoveryHandler(gorillahandlers.RecoveryLogger(recoveryLogger{logger}))(handler)
	handler = middleware.NewRequestLogger(logger).WithMetrics(m).Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Notification streams are hijacked, so the write timeout only bounds plain responses.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

const (
	defaultFriendRequestRateLimit = 20
	defaultReportRateLimit        = 10
)

// resolveRateLimit returns the per-minute limit for name. An env value that
// does not parse as a non-negative integer falls back to the default instead
// of silently disabling the limiter. Zero disables it.
func resolveRateLimit(name string, configured, fallback int, logger *logging.Logger, lookupEnv func(string) (string, bool)) int64 {
	limit := int64(configured)
	if v, ok := lookupEnv(name); ok && strings.TrimSpace(v) != "" {
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || parsed < 0 {
			logger.Warn("Invalid rate limit; using default", map[string]interface{}{
				"name":  name,
				"value": v,
				"limit": fallback,
			})
			limit = int64(fallback)
		} else {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = int64(fallback)
	}
	if limit == 0 {
		logger.Info("Rate limit disabled", map[string]interface{}{"name": name})
	}
	return limit
}

type recoveryLogger struct {
	logger *logging.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("Recovered from panic", map[string]interface{}{"panic": fmt.Sprint(v...)})
}
