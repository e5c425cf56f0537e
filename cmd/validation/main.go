package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/broker"
	"github.com/orion-telecom/cdr-pipeline/internal/config"
	"github.com/orion-telecom/cdr-pipeline/internal/httpserver"
	"github.com/orion-telecom/cdr-pipeline/internal/telemetry"
	"github.com/orion-telecom/cdr-pipeline/internal/validation"
)

const stageName = "validation"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	startedAt := time.Now().UTC()

	if otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); otelEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), stageName, otelEndpoint)
		if err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
			logger.Info("OTel tracer initialized", zap.String("endpoint", otelEndpoint))
		}
	}

	vaultManager, err := config.NewSecretManager(config.VaultAddr(), config.VaultToken())
	if err != nil {
		logger.Fatal("Vault connection failed", zap.Error(err))
	}
	secrets, err := vaultManager.GetKV2(config.VaultSecretPath(stageName))
	if err != nil {
		logger.Warn("Vault secret load failed, falling back to environment defaults", zap.Error(err))
		secrets = map[string]interface{}{}
	}

	natsURL := config.StringOr(secrets, "NATS_URL", config.GetEnv("NATS_URL", "nats://localhost:4222"))

	bk, err := broker.NewClient(natsURL, logger)
	if err != nil {
		logger.Fatal("NATS initialization failed", zap.Error(err))
	}
	defer bk.Close()

	if err := bk.ProvisionStreams(); err != nil {
		logger.Fatal("NATS stream provisioning failed", zap.Error(err))
	}

	metrics := telemetry.NewMetrics(stageName)
	stage := validation.New(bk, metrics, logger)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	durable := config.GetEnv("CONSUMER_GROUP", stageName+"-consumer")
	if err := stage.Run(runCtx, durable); err != nil {
		logger.Fatal("failed to start validation consumer", zap.Error(err))
	}

	httpSrv := httpserver.New(stageName, metrics, logger, startedAt)
	httpSrv.Start(config.GetEnv("BIND_ADDR", ":8080"))

	logger.Info("validation stage started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("initiating graceful shutdown")
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("validation stage shut down cleanly")
}
