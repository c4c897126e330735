package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/kroma-labs/hedgefs-go/example/fs/internal/config"
	"github.com/kroma-labs/hedgefs-go/example/fs/internal/telemetry"
	"github.com/kroma-labs/hedgefs-go/example/fs/internal/workload"
)

func main() {
	ctx := context.Background()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	// 1. Setup OpenTelemetry (Tracing + Metrics)
	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to setup OTel")
	}
	defer shutdown(ctx)

	// 2. Start Prometheus Metrics Server
	metricsServer := &http.Server{Addr: config.MetricsPort}
	go func() {
		logger.Info().Str("addr", config.MetricsPort).Msg("starting Prometheus metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("metrics server failed")
		}
	}()

	// 3. Build the hedged filesystem workload
	w, err := workload.New(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build workload")
	}
	defer w.Close()

	// 4. Run filesystem operations in a loop to generate continuous
	// metrics for demonstration
	tracer := otel.Tracer("hedgefs-example")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(config.OperationInterval * time.Second)
	defer ticker.Stop()

	fmt.Println("✅ HedgeFS example app started!")
	fmt.Println("📊 Prometheus metrics: http://localhost:2112/metrics")
	fmt.Println("Press Ctrl+C to stop...")

	for {
		select {
		case <-ticker.C:
			ctx, span := tracer.Start(ctx, "fs-operations")

			if err := w.ScanDirectory(ctx); err != nil {
				logger.Error().Err(err).Msg("scan failed")
			}
			if err := w.StatFiles(ctx); err != nil {
				logger.Error().Err(err).Msg("stat failed")
			}
			if err := w.ReadSample(ctx); err != nil {
				logger.Error().Err(err).Msg("read failed")
			}
			w.ReportHedging()

			span.End()

		case <-sigChan:
			fmt.Println("\n🛑 Shutting down gracefully...")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error().Err(err).Msg("metrics server shutdown error")
			}
			return
		}
	}
}
