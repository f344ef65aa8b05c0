package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/WooyoungKwon/youtube-premium-sub001/pkg/monitoring"
	"github.com/WooyoungKwon/youtube-premium-sub001/shared/redis"
	"github.com/WooyoungKwon/youtube-premium-sub001/shared/utils"
	v1 "github.com/WooyoungKwon/youtube-premium-sub001/v1"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/auth"
	v1handlers "github.com/WooyoungKwon/youtube-premium-sub001/v1/handlers"
	v1middleware "github.com/WooyoungKwon/youtube-premium-sub001/v1/middleware"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/notification"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultPricePerMember   = "4000"
	defaultBusinessTimezone = "Asia/Seoul"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	decimal.MarshalJSONWithoutQuotes = true

	slog.Info("Starting membership backend initialization")

	shutdownTelemetry := func(context.Context) error { return nil }
	if utils.GetEnvBoolOrDefault("ENABLE_OBSERVABILITY", false) {
		shutdown, err := monitoring.Setup(context.Background(), monitoring.Config{
			ServiceName:  utils.GetEnvOrDefault("SERVICE_NAME", "membership-backend"),
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			OTLPInsecure: utils.GetEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
		})
		if err != nil {
			slog.Error("Failed to set up observability", "error", err)
		} else {
			shutdownTelemetry = shutdown
		}
	}

	dbConfig := v1.NewDatabaseConfig()
	provider := v1.NewProvider(dbConfig)
	gormDB, err := provider.DB()
	if err != nil {
		slog.Error("Failed to connect to GORM database", "error", err)
		os.Exit(1)
	}

	authenticator, err := auth.NewAuthenticator(auth.NewConfig())
	if err != nil {
		slog.Error("Invalid admin authentication config", "error", err)
		os.Exit(1)
	}

	price, err := decimal.NewFromString(utils.GetEnvOrDefault("PRICE_PER_MEMBER", defaultPricePerMember))
	if err != nil || !price.IsPositive() {
		slog.Error("PRICE_PER_MEMBER must be a positive number", "value", os.Getenv("PRICE_PER_MEMBER"))
		os.Exit(1)
	}

	location, err := time.LoadLocation(utils.GetEnvOrDefault("BUSINESS_TIMEZONE", defaultBusinessTimezone))
	if err != nil {
		slog.Error("Invalid BUSINESS_TIMEZONE", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.RedisClient
	if redisConfig := redis.NewConfig(); redisConfig.Enabled() {
		redisClient, err = redis.NewClient(redisConfig)
		if err != nil {
			// Audit lines still go to the structured log
			slog.Warn("Redis unavailable, audit stream disabled", "error", err)
		} else {
			v1middleware.SetAuditPublisher(redisClient)
			slog.Info("Publishing admin audit events to Redis stream", "stream", redisConfig.Stream)
		}
	}

	var sender notification.Sender = notification.LogSender{}
	if smtpConfig := notification.NewSMTPConfig(); smtpConfig.Configured() {
		sender = notification.NewSMTPSender(smtpConfig)
	} else {
		slog.Info("SMTP not configured, notifications are logged only")
	}
	notifier := notification.NewNotifier(sender, os.Getenv("ADMIN_EMAIL"), notification.DefaultQueueSize)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	notifier.Start(workerCtx)

	handlerConfig := v1handlers.Config{
		Authenticator:  authenticator,
		Notifier:       notifier,
		PricePerMember: price,
		Location:       location,
		Pinger:         provider,
	}
	if redisClient != nil {
		handlerConfig.AuditStream = redisClient
	}
	handler := v1handlers.NewV1Handler(gormDB, handlerConfig)
	requestTimeout := utils.GetEnvDurationOrDefault("REQUEST_TIMEOUT", v1handlers.DefaultRequestTimeout)
	router := v1handlers.NewRouter(handler, requestTimeout)

	port := utils.GetEnvOrDefault("PORT", "3000")
	addr := ":" + port
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Membership backend starting", "port", port, "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down membership backend...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if err := notifier.Stop(ctx); err != nil {
		slog.Warn("Notification queue not fully drained", "error", err)
	}
	if err := shutdownTelemetry(ctx); err != nil {
		slog.Error("Failed to shut down telemetry", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("Failed to close Redis client", "error", err)
		}
	}
	if err := provider.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}

	slog.Info("Membership backend exited")
}
