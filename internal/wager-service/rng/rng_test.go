package rng_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/rng"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/store"
)

func TestImmediate_DeterministicForSameSeed(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	src := rng.NewImmediate()
	src.Now = func() time.Time { return fixed }

	w := &store.Wager{ID: 7, Creator: "alice"}

	d1, err := src.Obtain(context.Background(), w, "bob")
	require.NoError(t, err)
	d2, err := src.Obtain(context.Background(), w, "bob")
	require.NoError(t, err)

	assert.False(t, d1.Deferred)
	assert.Equal(t, d1.Word, d2.Word)
}

func TestImmediate_SeedInputsChangeTheWord(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	src := rng.NewImmediate()
	src.Now = func() time.Time { return fixed }

	w := &store.Wager{ID: 7, Creator: "alice"}

	d1, err := src.Obtain(context.Background(), w, "bob")
	require.NoError(t, err)
	d2, err := src.Obtain(context.Background(), w, "carol")
	require.NoError(t, err)
	d3, err := src.Obtain(context.Background(), &store.Wager{ID: 8, Creator: "alice"}, "bob")
	require.NoError(t, err)

	assert.NotEqual(t, d1.Word, d2.Word)
	assert.NotEqual(t, d1.Word, d3.Word)
}

func TestMemoryCorrelator_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	corr := rng.NewMemoryCorrelator()

	require.NoError(t, corr.File(ctx, "tok-1", 42))

	id, err := corr.Consume(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	// segunda leitura do mesmo token é rejeitada
	_, err = corr.Consume(ctx, "tok-1")
	assert.ErrorIs(t, err, rng.ErrUnknownRequest)
}

func TestMemoryCorrelator_UnknownToken(t *testing.T) {
	_, err := rng.NewMemoryCorrelator().Consume(context.Background(), "fantasma")
	assert.ErrorIs(t, err, rng.ErrUnknownRequest)
}
