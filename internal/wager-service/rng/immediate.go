package rng

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/store"
)

// Immediate deriva a palavra aleatória na hora, a partir de uma seed
// determinística (id, criador, matcher, timestamp corrente). Match e resolução
// acontecem na mesma operação.
type Immediate struct {
	Now func() time.Time
}

func NewImmediate() *Immediate {
	return &Immediate{Now: time.Now}
}

func (s *Immediate) Obtain(_ context.Context, w *store.Wager, matcher string) (Draw, error) {
	seed := fmt.Sprintf("%d|%s|%s|%d", w.ID, w.Creator, matcher, s.Now().UnixNano())
	sum := sha256.Sum256([]byte(seed))
	return Draw{Word: binary.BigEndian.Uint64(sum[:8])}, nil
}
