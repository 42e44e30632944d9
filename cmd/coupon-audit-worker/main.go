package main

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/coupon-builder-poc/internal/audit"
	"github.com/radieske/coupon-builder-poc/internal/shared/config"
	"github.com/radieske/coupon-builder-poc/internal/shared/db"
	"github.com/radieske/coupon-builder-poc/internal/shared/kafka"
	"github.com/radieske/coupon-builder-poc/internal/shared/logger"
	"github.com/radieske/coupon-builder-poc/internal/shared/metrics"
	ev "github.com/radieske/coupon-builder-poc/pkg/contracts/events"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres guarda a trilha de auditoria de cupons fechados
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	store := audit.NewStore(pg)

	// Consumers: um reader por tópico, mesmo group
	placedReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		GroupID:  "coupon-audit",
		Topic:    cfg.TopicCouponPlaced,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer placedReader.Close()

	discardedReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		GroupID:  "coupon-audit",
		Topic:    cfg.TopicCouponDiscarded,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer discardedReader.Close()

	// DLQ pra mensagens que falham depois dos retries
	var dlqWriter *kafkago.Writer
	if cfg.TopicCouponPlacedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicCouponPlacedDLQ)
		defer dlqWriter.Close()
	}

	// Servidor de métricas Prometheus e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("coupon-audit-worker started",
		zap.String("placed", cfg.TopicCouponPlaced),
		zap.String("discarded", cfg.TopicCouponDiscarded),
	)

	ctx := context.Background()

	go consumeDiscarded(ctx, log, discardedReader, store)
	consumePlaced(ctx, log, placedReader, store, dlqWriter)
}

// consumePlaced processa coupon_placed: persiste a linha de auditoria,
// com retry limitado e DLQ pra mensagem envenenada.
func consumePlaced(ctx context.Context, log *zap.Logger, reader *kafkago.Reader, store *audit.Store, dlqWriter *kafkago.Writer) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read placed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var placed ev.CouponPlaced
		if jerr := json.Unmarshal(msg.Value, &placed); jerr != nil {
			log.Error("unmarshal coupon_placed", zap.Error(jerr))
			continue
		}

		if err := insertWithRetry(ctx, func() error { return store.InsertPlaced(ctx, placed) }); err != nil {
			log.Error("audit insert placed", zap.String("couponId", placed.CouponID), zap.Error(err))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, placed.CouponID, msg.Value)
			}
		}
	}
}

// consumeDiscarded processa coupon_discarded; falha aqui só loga
// (descartes são menos críticos que placements).
func consumeDiscarded(ctx context.Context, log *zap.Logger, reader *kafkago.Reader, store *audit.Store) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read discarded", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var disc ev.CouponDiscarded
		if jerr := json.Unmarshal(msg.Value, &disc); jerr != nil {
			log.Error("unmarshal coupon_discarded", zap.Error(jerr))
			continue
		}

		if err := store.InsertDiscarded(ctx, disc); err != nil {
			log.Error("audit insert discarded", zap.String("sessionId", disc.SessionID), zap.Error(err))
		}
	}
}

// insertWithRetry tenta até 3 vezes com backoff simples.
func insertWithRetry(ctx context.Context, fn func() error) error {
	err := fn()
	for i := 0; err != nil && i < 3; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(300*(i+1)) * time.Millisecond):
		}
		err = fn()
	}
	return err
}
