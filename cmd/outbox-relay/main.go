// cmd/outbox-relay/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"shopcore/internal/outbox"
	"shopcore/internal/pkg/config"
	"shopcore/internal/pkg/database"
	"shopcore/internal/pkg/logger"
	"shopcore/internal/pkg/mq"
	"shopcore/internal/pkg/tracing"
)

const serviceName = "outbox-relay"

// 发件箱投递进程：轮询 outbox_message，把待投递的事件推到 Kafka。
// 与 order-service 分开部署，投递压力不影响下单路径。
func main() {
	configPath := flag.String("config", "configs/outbox-relay.yaml", "path to config file")
	flag.Parse()

	logger.Init(serviceName)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Jaeger.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	db, err := database.Open(cfg.MySQL.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := db.AutoMigrate(&outbox.MessageModel{}); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	writer := mq.NewWriter(cfg.Kafka.Brokers)
	producer := outbox.NewKafkaProducer(writer)

	relay := outbox.NewRelay(
		outbox.NewGormRepository(db),
		producer,
		cfg.Kafka.Topic,
		cfg.Outbox.PollInterval,
		cfg.Outbox.BatchSize,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go relay.Start(ctx)
	go relay.RunRetention(ctx, cfg.Outbox.RetentionInterval, cfg.Outbox.RetentionMaxAge)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: ":" + strconv.Itoa(cfg.Service.Port), Handler: mux}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health and metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down health server")
	}
	if err := producer.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close kafka producer")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down tracer provider")
	}
	log.Info().Msg("shutdown complete")
}
