// Command hotlabd runs the hot-lab core service: the persistent store with
// its rules engine, the workflow ticker, the alert notifiers, and the HTTP
// API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hotlabcore/internal/config"
	"hotlabcore/internal/core"
	"hotlabcore/internal/httpapi"
	"hotlabcore/internal/notify"
	"hotlabcore/pkg/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := core.NewDefaultRulesEngine()
	store, err := core.OpenPersistentStore(engine)
	if err != nil {
		logger.Fatal("open persistent store", zap.Error(err))
	}

	archive, err := core.OpenArchiveStore(ctx)
	if err != nil {
		logger.Fatal("open archive store", zap.Error(err))
	}

	notifier := buildNotifier(ctx, cfg, logger)

	opts := []core.Option{
		core.WithLogger(logger),
		core.WithMetrics(core.NewPrometheusMetricsRecorder(prometheus.DefaultRegisterer)),
		core.WithNotifier(notifier),
		core.WithArchiver(core.NewBlobEpisodeArchiver(archive)),
	}
	if cfg.ExtractionYield > 0 {
		opts = append(opts, core.WithExtractionYield(cfg.ExtractionYield))
	}
	service := core.NewService(store, opts...)

	if _, err := service.SeedIsotopes(ctx, core.DefaultIsotopes()); err != nil {
		logger.Fatal("seed isotopes", zap.Error(err))
	}
	if _, err := service.SeedRooms(ctx, core.DefaultRooms()); err != nil {
		logger.Fatal("seed rooms", zap.Error(err))
	}

	go core.NewTicker(service, cfg.TickInterval, logger).Run(ctx)

	handler := httpapi.New(service, archive, logger)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	logger, err := cfg.Build()
	if err != nil {
		os.Exit(1)
	}
	return logger
}

// buildNotifier assembles the delivery chain: always the structured log,
// plus Redis Streams and MQTT when configured. A broker that cannot be
// reached at startup is logged and skipped rather than fatal.
func buildNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) domain.Notifier {
	backends := []domain.Notifier{notify.NewLogNotifier(logger)}

	if cfg.Redis.Addr != "" {
		redisNotifier, err := notify.NewRedisNotifier(ctx, notify.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Stream:   cfg.Redis.Stream,
		})
		if err != nil {
			logger.Warn("redis notifier disabled", zap.Error(err))
		} else {
			backends = append(backends, redisNotifier)
		}
	}

	if cfg.MQTT.Broker != "" {
		mqttNotifier, err := notify.NewMQTTNotifier(notify.MQTTConfig{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
		})
		if err != nil {
			logger.Warn("mqtt notifier disabled", zap.Error(err))
		} else {
			backends = append(backends, mqttNotifier)
		}
	}

	return notify.NewMultiNotifier(backends...)
}
