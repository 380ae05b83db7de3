package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/shared/config"
	skafka "github.com/radieske/p2p-wager-platform-poc/internal/shared/kafka"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/logger"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/signer"
	ev "github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Métricas Prometheus do oráculo simulado
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "oracle_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	fulfillmentsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "oracle_fulfillments_sent_total",
		Help: "Total de fulfillments publicados",
	})
)

// Representa uma conexão de cliente WebSocket
type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes conectados via WebSocket e faz broadcast de cada
// fulfillment para observadores externos.
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		clients: make(map[string]*clientConn),
		log:     log,
	}
}

func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		}
	}
}

// latência simulada do provedor entre requisição e fulfillment
func fulfillmentDelay() time.Duration {
	return time.Duration(200+rand.Intn(600)) * time.Millisecond
}

func main() {
	cfg := config.Load()
	log, err := logger.New("oracle-simulator", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, fulfillmentsSent)

	// Kafka: consome requisições de aleatoriedade e publica fulfillments assinados
	reader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicRandomnessRequested, "oracle-simulator")
	defer reader.Close()

	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRandomnessFulfilled)
	defer writer.Close()

	h := newHub(log)
	ctx := context.Background()

	// Loop do oráculo: para cada requisição, sorteia a palavra, assina com o
	// secret compartilhado e publica o fulfillment
	go func() {
		for {
			_, value, err := skafka.ReadNext(ctx, reader)
			if err != nil {
				log.Warn("kafka read", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			var req ev.RandomnessRequested
			if jerr := json.Unmarshal(value, &req); jerr != nil {
				log.Error("unmarshal randomness_requested", zap.Error(jerr))
				continue
			}

			time.Sleep(fulfillmentDelay())

			word := rand.Uint64()
			f := ev.RandomnessFulfilled{
				Token:     req.Token,
				Word:      word,
				Signature: signer.Sign(cfg.OracleSecret, req.Token, word),
				TsUnixMs:  time.Now().UnixMilli(),
			}

			b, _ := json.Marshal(f)
			if err := skafka.WriteJSON(ctx, writer, f.Token, b); err != nil {
				log.Error("publish fulfillment", zap.String("token", f.Token), zap.Error(err))
				continue
			}
			fulfillmentsSent.Inc()
			h.broadcast(f)

			log.Info("fulfillment published",
				zap.String("token", req.Token),
				zap.Int64("wagerId", req.WagerID),
			)
		}
	}()

	// ==== MUX PÚBLICO (HTTP principal): /ws para observadores
	appMux := http.NewServeMux()

	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		// Goroutine para manter a conexão viva e remover cliente ao desconectar
		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				// Lê e descarta mensagens do cliente para manter o socket limpo
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("oracle simulator (metrics) running",
			zap.String("addr", metricsAddr),
			zap.String("paths", "/healthz,/metrics"),
		)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("oracle simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/ws"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
