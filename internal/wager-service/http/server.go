package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/dto"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/engine"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/store"
)

// Server expõe a API pública do ciclo de vida de apostas e a superfície
// administrativa (collector, saque de taxas).
type Server struct {
	log        *zap.Logger
	eng        *engine.Engine
	adminToken string

	// callbacks de métricas (counter++), ligados no main
	OnCreated   func()
	OnMatched   func()
	OnResolved  func()
	OnCancelled func()
}

func NewServer(log *zap.Logger, eng *engine.Engine, adminToken string) *Server {
	return &Server{log: log, eng: eng, adminToken: adminToken}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wagers", s.createWager)              // POST
	mux.HandleFunc("/wagers/", s.wagerSubroutes)          // GET /wagers/{id}, POST /wagers/{id}/match, POST /wagers/{id}/cancel
	mux.HandleFunc("/platform", s.getPlatform)            // GET
	mux.HandleFunc("/admin/collector", s.setCollector)    // POST (X-Admin-Token)
	mux.HandleFunc("/admin/fees/withdraw", s.withdrawFees) // POST (X-Admin-Token)
	return mux
}

func (s *Server) createWager(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	wg, err := s.eng.Create(r.Context(), req.UserID, req.Choice, req.StakeCents)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.OnCreated != nil {
		s.OnCreated()
	}
	writeJSON(w, toWagerResponse(wg))
}

// wagerSubroutes faz o roteamento manual de /wagers/{id}[/match|/cancel]
func (s *Server) wagerSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/wagers/")
	parts := strings.Split(rest, "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid wager id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.getWager(w, r, id)
	case len(parts) == 2 && parts[1] == "match" && r.Method == http.MethodPost:
		s.matchWager(w, r, id)
	case len(parts) == 2 && parts[1] == "cancel" && r.Method == http.MethodPost:
		s.cancelWager(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) getWager(w http.ResponseWriter, r *http.Request, id int64) {
	wg, err := s.eng.Wager(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toWagerResponse(wg))
}

func (s *Server) matchWager(w http.ResponseWriter, r *http.Request, id int64) {
	var req dto.MatchWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	wg, err := s.eng.Match(r.Context(), req.UserID, id, req.StakeCents, req.Choice)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.OnMatched != nil {
		s.OnMatched()
	}
	if wg.Status == store.StatusResolved && s.OnResolved != nil {
		s.OnResolved()
	}
	writeJSON(w, toWagerResponse(wg))
}

func (s *Server) cancelWager(w http.ResponseWriter, r *http.Request, id int64) {
	var req dto.CancelWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	wg, err := s.eng.Cancel(r.Context(), req.UserID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.OnCancelled != nil {
		s.OnCancelled()
	}
	writeJSON(w, toWagerResponse(wg))
}

func (s *Server) getPlatform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st, err := s.eng.Platform(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.PlatformResponse{
		WagerCount:       st.WagerCount,
		AccruedFeesCents: st.AccruedFeesCents,
		FeeCollector:     st.FeeCollector,
	})
}

func (s *Server) setCollector(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req dto.SetCollectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := s.eng.SetCollector(r.Context(), req.Collector); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

func (s *Server) withdrawFees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	collector, amount, err := s.eng.WithdrawFees(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, dto.WithdrawFeesResponse{Collector: collector, AmountCents: amount})
}

func (s *Server) authorized(r *http.Request) bool {
	return r.Header.Get("X-Admin-Token") == s.adminToken
}

// writeError mapeia a taxonomia de erros do motor para status HTTP:
// validação -> 400, não encontrado -> 404, conflito de estado/saldo -> 409.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrInvalidChoice),
		errors.Is(err, engine.ErrChoiceMismatch),
		errors.Is(err, engine.ErrInvalidCollector):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrWagerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrNotPending),
		errors.Is(err, store.ErrNotAwaiting),
		errors.Is(err, store.ErrInsufficientFunds),
		errors.Is(err, store.ErrNoFees),
		errors.Is(err, engine.ErrAlreadyMatched),
		errors.Is(err, engine.ErrSelfMatch),
		errors.Is(err, engine.ErrAmountMismatch),
		errors.Is(err, engine.ErrNotCreator):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toWagerResponse(w *store.Wager) dto.WagerResponse {
	return dto.WagerResponse{
		WagerID:       w.ID,
		Creator:       w.Creator,
		Counterparty:  w.Counterparty,
		StakeCents:    w.StakeCents,
		CreatorChoice: w.CreatorChoice,
		Status:        w.Status,
		Winner:        w.Winner,
		RequestToken:  w.RequestToken,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
