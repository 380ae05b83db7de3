package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/shared/cache"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/config"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/db"
	skafka "github.com/radieske/p2p-wager-platform-poc/internal/shared/kafka"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/logger"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/metrics"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/signer"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/engine"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/producer"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/rng"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/store"
	ev "github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("vrf-callback-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: mesmo ledger de apostas/carteiras do wager-service
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: correlator das requisições em voo (token -> wager id)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka consumer: fulfillments do oráculo
	reader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicRandomnessFulfilled, "vrf-callback")
	defer reader.Close()

	// Kafka producer: eventos wager_resolved + DLQ de fulfillments problemáticos
	writer := skafka.NewMultiWriter(cfg.KafkaBrokers)
	defer writer.Close()
	publ := producer.NewKafkaPublisher(writer)

	dlqWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRandomnessFulfilledDLQ)
	defer dlqWriter.Close()

	corr := rng.NewRedisCorrelator(rdb)
	eng := engine.New(log, store.NewPostgres(pg), nil, corr, publ, engine.Config{
		FeeBps: cfg.FeeBps,
	})

	// Métricas Prometheus por desfecho do callback
	processed := prometheus.NewCounter(prometheus.CounterOpts{Name: "vrf_fulfillments_processed_total", Help: "fulfillments aplicados"})
	replayed := prometheus.NewCounter(prometheus.CounterOpts{Name: "vrf_fulfillments_replayed_total", Help: "fulfillments repetidos (no-op)"})
	unauthorized := prometheus.NewCounter(prometheus.CounterOpts{Name: "vrf_fulfillments_unauthorized_total", Help: "fulfillments com assinatura inválida"})
	unknown := prometheus.NewCounter(prometheus.CounterOpts{Name: "vrf_fulfillments_unknown_total", Help: "tokens desconhecidos (duplicado ou spoof)"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "vrf_fulfillments_failed_total", Help: "fulfillments enviados para a DLQ"})
	prometheus.MustRegister(processed, replayed, unauthorized, unknown, failed)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	log.Info("vrf-callback-worker started", zap.String("consume", cfg.TopicRandomnessFulfilled))

	ctx := context.Background()

	// Loop principal: consome fulfillments, autentica a origem e resolve a aposta
	for {
		_, value, err := skafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var f ev.RandomnessFulfilled
		if jerr := json.Unmarshal(value, &f); jerr != nil {
			log.Error("unmarshal randomness_fulfilled", zap.Error(jerr))
			continue
		}

		// Autentica o callback: só o oráculo configurado conhece o secret.
		// Assinatura inválida é descartada e logada como suspeita.
		if !signer.Verify(cfg.OracleSecret, f.Token, f.Word, f.Signature) {
			unauthorized.Inc()
			log.Warn("unauthorized fulfillment dropped", zap.String("token", f.Token))
			continue
		}

		w, applied, err := eng.ResolveFulfillment(ctx, f.Token, f.Word)
		switch {
		case errors.Is(err, rng.ErrUnknownRequest):
			// token fora do correlator: callback duplicado ou spoofado
			unknown.Inc()
			log.Warn("unknown request token", zap.String("token", f.Token))
		case err != nil:
			// erro transitório (banco fora etc): retry simples, depois DLQ
			if rerr := retryResolve(ctx, eng, f, 3); rerr != nil {
				failed.Inc()
				log.Error("fulfillment failed, sending to DLQ", zap.String("token", f.Token), zap.Error(rerr))
				_ = skafka.WriteJSON(ctx, dlqWriter, f.Token, value)
			} else {
				processed.Inc()
			}
		case !applied:
			// aposta já resolvida/cancelada: no-op idempotente
			replayed.Inc()
			log.Info("fulfillment replay ignored", zap.Int64("wagerId", w.ID))
		default:
			processed.Inc()
			log.Info("wager resolved",
				zap.Int64("wagerId", w.ID),
				zap.String("winner", w.Winner),
			)
		}
	}
}

// retryResolve tenta reaplicar o fulfillment com backoff simples. Em falha
// transitória o motor devolve o token ao correlator, então reprocessar é seguro.
func retryResolve(ctx context.Context, eng *engine.Engine, f ev.RandomnessFulfilled, retries int) error {
	var err error
	for i := 0; i < retries; i++ {
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
		if _, _, err = eng.ResolveFulfillment(ctx, f.Token, f.Word); err == nil {
			return nil
		}
		if errors.Is(err, rng.ErrUnknownRequest) {
			return err
		}
	}
	return err
}
