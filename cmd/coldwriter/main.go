package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/broker"
	"github.com/orion-telecom/cdr-pipeline/internal/coldwriter"
	"github.com/orion-telecom/cdr-pipeline/internal/config"
	"github.com/orion-telecom/cdr-pipeline/internal/httpserver"
	"github.com/orion-telecom/cdr-pipeline/internal/telemetry"
)

const stageName = "coldwriter"

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
	objectStoreEndpoint := config.StringOr(secrets, "OBJECT_STORE_ENDPOINT", config.GetEnv("OBJECT_STORE_ENDPOINT", "localhost:9000"))
	accessKey := config.StringOr(secrets, "OBJECT_STORE_ACCESS_KEY", config.GetEnv("OBJECT_STORE_ACCESS_KEY", "minioadmin"))
	secretKey := config.StringOr(secrets, "OBJECT_STORE_SECRET_KEY", config.GetEnv("OBJECT_STORE_SECRET_KEY", "minioadmin"))
	bucket := config.GetEnv("OBJECT_STORE_BUCKET", "cdr-archive")
	useSSL := config.GetEnvBool("OBJECT_STORE_USE_SSL", false)
	pathStyle := config.GetEnvBool("OBJECT_STORE_PATH_STYLE", true)

	uploader, err := coldwriter.NewUploader(objectStoreEndpoint, accessKey, secretKey, bucket, useSSL, pathStyle, logger)
	if err != nil {
		logger.Fatal("object store client construction failed", zap.Error(err))
	}
	if err := uploader.EnsureBucket(context.Background()); err != nil {
		logger.Fatal("object store bucket bootstrap failed", zap.Error(err))
	}

	bk, err := broker.NewClient(natsURL, logger)
	if err != nil {
		logger.Fatal("NATS initialization failed", zap.Error(err))
	}
	defer bk.Close()

	if err := bk.ProvisionStreams(); err != nil {
		logger.Fatal("NATS stream provisioning failed", zap.Error(err))
	}

	metrics := telemetry.NewMetrics(stageName)
	stageDir := config.GetEnv("COLD_STAGING_DIR", "/tmp/cdr-cold-staging")
	sizeThreshold := config.GetEnvInt("COLD_BATCH_SIZE", 1000)
	flushInterval := config.GetEnvDuration("COLD_FLUSH_INTERVAL", 30*time.Second)

	stage := coldwriter.New(bk, uploader, stageDir, sizeThreshold, metrics, logger)

	httpSrv := httpserver.New(stageName, metrics, logger, startedAt)
	httpSrv.Start(config.GetEnv("BIND_ADDR", ":8080"))

	logger.Info("cold writer stage started")

	runCtx, cancelRun := context.WithCancel(context.Background())
	runErrCh := make(chan error, 1)
	durable := config.GetEnv("CONSUMER_GROUP", stageName+"-consumer")
	go func() {
		runErrCh <- stage.Run(runCtx, durable, flushInterval)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("initiating graceful shutdown")
	case err := <-runErrCh:
		logger.Error("cold writer consumer exited unexpectedly", zap.Error(err))
	}

	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("cold writer stage shut down cleanly")
}
