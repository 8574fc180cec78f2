package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-leave/internal/compliance"
	"go-leave/internal/config"
	"go-leave/internal/messaging/kafka/producer"
	"go-leave/internal/shared/connection"
	"go-leave/internal/shared/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RunWorker publishes the outbox to Kafka and runs the daily compliance sync.
func RunWorker(cfg *config.Config) error {
	logger := zap.L().Named("app.worker")

	gormDB, sqlDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, connectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	c := buildCore(cfg, sqlDB, gormDB, m, logger)

	scheduler := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	job := compliance.NewDailySyncJob(c.compliance, 0, logger)
	if _, err := compliance.ScheduleDailySync(scheduler, cfg.ComplianceSyncCron, job); err != nil {
		return fmt.Errorf("schedule compliance sync: %w", err)
	}
	scheduler.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		c.outbox,
		kafkaWriter,
		m,
		logger,
		cfg.OutboxPollInterval,
	)

	metricsServer := serveWorkerMetrics(cfg.WorkerMetricsPort, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()
	<-scheduler.Stop().Done()
	if metricsServer != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	return nil
}

func serveWorkerMetrics(port string, logger *zap.Logger) *http.Server {
	if port == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("worker metrics listening", zap.String("port", port))
	return srv
}
