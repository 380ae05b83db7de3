package rng

import (
	"context"

	"github.com/google/uuid"

	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/store"
)

// Deferred sorteia um token e o registra no correlator; a palavra chega depois,
// num callback independente (vrf-callback-worker). O pedido ao oráculo é
// publicado pelo motor depois do commit da transição, para um match frustrado
// não deixar requisição viva.
type Deferred struct {
	correlator Correlator
	newToken   func() string
}

func NewDeferred(c Correlator) *Deferred {
	return &Deferred{correlator: c, newToken: uuid.NewString}
}

func (s *Deferred) Obtain(ctx context.Context, w *store.Wager, _ string) (Draw, error) {
	token := s.newToken()

	if err := s.correlator.File(ctx, token, w.ID); err != nil {
		return Draw{}, err
	}

	return Draw{Token: token, Deferred: true}, nil
}
