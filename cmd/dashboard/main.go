package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fraudwatch/pkg/alert"
	"fraudwatch/pkg/api"
	"fraudwatch/pkg/feed"
	"fraudwatch/pkg/logging"
	promMetrics "fraudwatch/pkg/metrics/prometheus"
	"fraudwatch/pkg/poller"
	"fraudwatch/pkg/window"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	logger, err := logging.NewFromEnv()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	logger.Info("starting fraudwatch dashboard")

	// Metrics.
	collector := promMetrics.New("fraudwatch")
	registry := prometheus.NewRegistry()
	if err := collector.Register(registry); err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	// Feed client with breaker protection.
	feedConfig := feed.DefaultConfig()
	feedConfig.BaseURL = getEnv("FEED_URL", feedConfig.BaseURL)
	httpFeed, err := feed.NewHTTPClient(feedConfig)
	if err != nil {
		logger.Fatal("failed to create feed client", zap.Error(err))
	}
	feedClient := feed.NewResilientClient(httpFeed, feed.DefaultResilientConfig(), collector)
	logger.Info("feed client initialized", zap.String("url", feedConfig.BaseURL))

	// Rolling windows.
	store := window.NewStore()

	// Optional Redis fraud-alert sink.
	var alerts poller.Sink
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		alertConfig := alert.DefaultConfig()
		alertConfig.Addr = addr
		alertConfig.Password = os.Getenv("REDIS_PASSWORD")
		sink, err := alert.NewRedisSink(alertConfig)
		if err != nil {
			logger.Fatal("failed to connect alert sink", zap.Error(err))
		}
		defer sink.Close()
		alerts = sink
		logger.Info("fraud alert sink initialized", zap.String("addr", addr))
	}

	// Pollers.
	pollerConfig := poller.DefaultConfig()
	pollerConfig.MergeInterval = getDurationEnv("MERGE_INTERVAL", pollerConfig.MergeInterval)
	pollerConfig.Logger = logger
	pollerConfig.Metrics = collector
	pollerConfig.Alerts = alerts
	p, err := poller.New(feedClient, store, pollerConfig)
	if err != nil {
		logger.Fatal("invalid poller configuration", zap.Error(err))
	}
	p.Start()
	defer p.Close()
	logger.Info("pollers started",
		zap.Duration("merge_interval", pollerConfig.MergeInterval))

	// API server.
	serverConfig := api.DefaultServerConfig()
	serverConfig.Address = ":" + getEnv("PORT", "8080")
	serverConfig.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	server := api.NewServer(store, p, serverConfig)
	server.Start()

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}
