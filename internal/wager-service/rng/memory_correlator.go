package rng

import (
	"context"
	"sync"
)

// MemoryCorrelator guarda as entradas token -> wager id em memória.
// Usado nos testes e em execução local sem Redis.
type MemoryCorrelator struct {
	mu      sync.Mutex
	pending map[string]int64
}

func NewMemoryCorrelator() *MemoryCorrelator {
	return &MemoryCorrelator{pending: make(map[string]int64)}
}

func (c *MemoryCorrelator) File(_ context.Context, token string, wagerID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[token] = wagerID
	return nil
}

func (c *MemoryCorrelator) Consume(_ context.Context, token string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.pending[token]
	if !ok {
		return 0, ErrUnknownRequest
	}
	delete(c.pending, token)
	return id, nil
}
