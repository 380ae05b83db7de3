package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/shared/cache"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/config"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/db"
	skafka "github.com/radieske/p2p-wager-platform-poc/internal/shared/kafka"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/logger"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/metrics"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/engine"
	whttp "github.com/radieske/p2p-wager-platform-poc/internal/wager-service/http"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/producer"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/rng"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/store"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("wager-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: ledger de apostas + carteiras (escrow)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka writer multi-tópico para os eventos de ciclo de vida
	writer := skafka.NewMultiWriter(cfg.KafkaBrokers)
	defer writer.Close()
	publ := producer.NewKafkaPublisher(writer)

	st := store.NewPostgres(pg)

	// Seleção da fonte de aleatoriedade: imediata (resolve no próprio match)
	// ou diferida via oráculo VRF (resolve no callback)
	var src rng.Source
	var corr rng.Correlator
	switch cfg.RandomnessMode {
	case "vrf":
		rdb, err := cache.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()
		corr = rng.NewRedisCorrelator(rdb)
		src = rng.NewDeferred(corr)
	default:
		src = rng.NewImmediate()
	}

	eng := engine.New(log, st, src, corr, publ, engine.Config{
		FeeBps:                cfg.FeeBps,
		ExplicitCounterChoice: cfg.ExplicitCounterChoice,
	})

	// Métricas Prometheus do ciclo de vida
	created := prometheus.NewCounter(prometheus.CounterOpts{Name: "wager_created_total", Help: "apostas criadas"})
	matched := prometheus.NewCounter(prometheus.CounterOpts{Name: "wager_matched_total", Help: "apostas casadas"})
	resolved := prometheus.NewCounter(prometheus.CounterOpts{Name: "wager_resolved_total", Help: "apostas resolvidas (inline)"})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{Name: "wager_cancelled_total", Help: "apostas canceladas"})
	prometheus.MustRegister(created, matched, resolved, cancelled)

	api := whttp.NewServer(log, eng, cfg.AdminToken)
	api.OnCreated = func() { created.Inc() }
	api.OnMatched = func() { matched.Inc() }
	api.OnResolved = func() { resolved.Inc() }
	api.OnCancelled = func() { cancelled.Inc() }

	// Servidor de métricas/health numa porta separada
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	log.Info("wager-service listening",
		zap.String("addr", apiSrv.Addr),
		zap.String("randomness_mode", cfg.RandomnessMode),
		zap.Int64("fee_bps", cfg.FeeBps),
	)
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
