package signer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/radieske/p2p-wager-platform-poc/internal/shared/signer"
)

func TestSignAndVerify(t *testing.T) {
	sig := signer.Sign("secret", "tok-1", 42)
	assert.True(t, signer.Verify("secret", "tok-1", 42, sig))
}

func TestVerify_RejectsTampering(t *testing.T) {
	sig := signer.Sign("secret", "tok-1", 42)

	assert.False(t, signer.Verify("secret", "tok-1", 43, sig), "palavra alterada")
	assert.False(t, signer.Verify("secret", "tok-2", 42, sig), "token alterado")
	assert.False(t, signer.Verify("outro-secret", "tok-1", 42, sig), "secret errado")
	assert.False(t, signer.Verify("secret", "tok-1", 42, ""), "assinatura vazia")
}
