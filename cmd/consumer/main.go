// The consumer binary runs the event-driven side of the site: the cache
// invalidation sweeps and the lead tallies. It shares the container packages
// with the server but needs neither postgres nor the HTTP surface.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do"
	"github.com/serroba/site-edge-go/internal/container"
	"github.com/serroba/site-edge-go/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	opts := optionsFromEnv()

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	logger.Info("consumer started",
		zap.String("redis_addr", opts.RedisAddr),
		zap.String("environment", opts.Environment))

	<-ctx.Done()

	logger.Info("shutting down, draining consumers")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

// optionsFromEnv builds the consumer's slice of the service options. The
// consumer has no CLI surface, so everything comes from the environment.
func optionsFromEnv() *container.Options {
	return &container.Options{
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}
