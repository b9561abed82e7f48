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

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/cayocagi/internal/app"
	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/cache"
	"github.com/joao-fontenele/cayocagi/internal/config"
	"github.com/joao-fontenele/cayocagi/internal/httpx"
	"github.com/joao-fontenele/cayocagi/internal/messaging"
	"github.com/joao-fontenele/cayocagi/internal/orders"
	"github.com/joao-fontenele/cayocagi/internal/telemetry"
)

func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Version)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, cfg.Version)
	if err != nil {
		logger.Error("failed to initialize meter provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	if err != nil {
		logger.Error("failed to configure tokens", "error", err)
		os.Exit(1)
	}

	opts := []orders.Option{orders.WithMetrics(metrics)}
	if cfg.RedisAddr != "" {
		rdb := cache.NewClient(cfg.RedisAddr)
		defer func() { _ = rdb.Close() }()
		opts = append(opts, orders.WithCache(cache.NewOrderCache(rdb, cfg.OrderCacheTTL)))
		logger.Info("order cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.OrderCacheTTL)
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = producer.Close() }()
		opts = append(opts, orders.WithPublisher(producer))
		logger.Info("order events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	api := app.New(db, tokens, logger, opts...)
	api.Router.Method(http.MethodGet, "/metrics", metricsHandler)

	if cfg.AdminUsername != "" {
		if err := api.Users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			logger.Error("failed to bootstrap admin", "error", err)
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: otelhttp.NewHandler(api.Router, cfg.ServiceName,
			otelhttp.WithSpanNameFormatter(httpx.RouteSpanName),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		logger.Info("starting api", "addr", cfg.HTTPAddr, "version", cfg.Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
