package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sign assina um fulfillment do oráculo: HMAC-SHA256(secret, token|word) em hex.
// O wager-platform e o oráculo compartilham o secret fora de banda.
func Sign(secret, token string, word uint64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = fmt.Fprintf(mac, "%s|%d", token, word)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify confere a assinatura de um fulfillment em tempo constante.
func Verify(secret, token string, word uint64, signature string) bool {
	want := Sign(secret, token, word)
	return hmac.Equal([]byte(want), []byte(signature))
}
