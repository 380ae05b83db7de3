package rng

import (
	"context"
	"errors"

	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/store"
)

var ErrUnknownRequest = errors.New("unknown randomness request")

// Draw é o resultado de pedir aleatoriedade para um match.
// Ou a palavra vem na hora (Deferred=false, Word válido), ou foi registrada uma
// requisição ao oráculo (Deferred=true, Token válido) e a palavra chega depois
// no callback.
type Draw struct {
	Word     uint64
	Token    string
	Deferred bool
}

// Source abstrai o provedor de aleatoriedade. O motor resolve do mesmo jeito
// nas duas variantes; só muda quem chama a resolução (inline ou worker).
type Source interface {
	Obtain(ctx context.Context, w *store.Wager, matcher string) (Draw, error)
}

// Correlator rastreia requisições em voo: token -> wager id.
// Consume remove a entrada antes de devolver, então um segundo callback com o
// mesmo token recebe ErrUnknownRequest deterministicamente.
type Correlator interface {
	File(ctx context.Context, token string, wagerID int64) error
	Consume(ctx context.Context, token string) (int64, error)
}
