package store

import (
	"context"
	"sync"
	"time"
)

// Memory é a implementação em memória do store, com a mesma semântica
// transacional do Postgres: cada operação aplica transição e movimento de
// valor sob o mesmo lock, tudo-ou-nada. Usada nos testes e em execução local
// sem infraestrutura.
type Memory struct {
	mu       sync.Mutex
	wagers   map[int64]*Wager
	balances map[string]int64
	state    PlatformState
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		wagers:   make(map[int64]*Wager),
		balances: make(map[string]int64),
		now:      time.Now,
	}
}

// SetClock troca a fonte de tempo (testes)
func (m *Memory) SetClock(now func() time.Time) { m.now = now }

// Deposit credita saldo direto na carteira (superfície de funding)
func (m *Memory) Deposit(_ context.Context, userID string, amountCents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] += amountCents
}

// Balance retorna o saldo atual da carteira do usuário
func (m *Memory) Balance(_ context.Context, userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID]
}

func (m *Memory) CreatePending(_ context.Context, creator, choice string, stakeCents int64) (*Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.balances[creator] < stakeCents {
		return nil, ErrInsufficientFunds
	}
	m.balances[creator] -= stakeCents

	m.state.WagerCount++
	now := m.now()
	w := &Wager{
		ID:            m.state.WagerCount,
		Creator:       creator,
		StakeCents:    stakeCents,
		CreatorChoice: choice,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.wagers[w.ID] = w
	cp := *w
	return &cp, nil
}

func (m *Memory) Get(_ context.Context, id int64) (*Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wagers[id]
	if !ok {
		return nil, ErrWagerNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *Memory) MatchAwait(_ context.Context, id int64, matcher, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wagers[id]
	if !ok {
		return ErrWagerNotFound
	}
	if w.Status != StatusPending {
		return ErrNotPending
	}
	if m.balances[matcher] < w.StakeCents {
		return ErrInsufficientFunds
	}

	m.balances[matcher] -= w.StakeCents
	w.Counterparty = matcher
	w.RequestToken = token
	w.Status = StatusAwaitingResult
	w.UpdatedAt = m.now()
	return nil
}

func (m *Memory) MatchResolve(_ context.Context, id int64, matcher, winner string, payoutCents, feeCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wagers[id]
	if !ok {
		return ErrWagerNotFound
	}
	if w.Status != StatusPending {
		return ErrNotPending
	}
	if m.balances[matcher] < w.StakeCents {
		return ErrInsufficientFunds
	}

	m.balances[matcher] -= w.StakeCents
	w.Counterparty = matcher
	w.Winner = winner
	w.Status = StatusResolved
	w.UpdatedAt = m.now()
	m.balances[winner] += payoutCents
	m.state.AccruedFeesCents += feeCents
	return nil
}

func (m *Memory) ResolveAwaiting(_ context.Context, id int64, winner string, payoutCents, feeCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wagers[id]
	if !ok {
		return ErrWagerNotFound
	}
	if w.Status != StatusAwaitingResult {
		return ErrNotAwaiting
	}

	w.Winner = winner
	w.Status = StatusResolved
	w.RequestToken = ""
	w.UpdatedAt = m.now()
	m.balances[winner] += payoutCents
	m.state.AccruedFeesCents += feeCents
	return nil
}

func (m *Memory) Cancel(_ context.Context, id int64, creator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wagers[id]
	if !ok {
		return ErrWagerNotFound
	}
	if w.Status != StatusPending {
		return ErrNotPending
	}

	w.Status = StatusCancelled
	w.UpdatedAt = m.now()
	m.balances[creator] += w.StakeCents
	return nil
}

func (m *Memory) State(_ context.Context) (*PlatformState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	return &st, nil
}

func (m *Memory) SetCollector(_ context.Context, collector string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.FeeCollector = collector
	return nil
}

func (m *Memory) SweepFees(_ context.Context) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.AccruedFeesCents == 0 {
		return "", 0, ErrNoFees
	}
	amount := m.state.AccruedFeesCents
	m.state.AccruedFeesCents = 0
	m.balances[m.state.FeeCollector] += amount
	return m.state.FeeCollector, amount, nil
}
