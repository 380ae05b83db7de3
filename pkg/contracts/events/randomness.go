package events

// Contrato com o provedor externo de aleatoriedade (oráculo).

type RandomnessRequested struct {
	Token    string `json:"token"`
	WagerID  int64  `json:"wager_id"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

// RandomnessFulfilled carrega a palavra aleatória sorteada pelo oráculo.
// Signature é HMAC-SHA256(secret, token|word) em hex; o worker descarta
// fulfillments cuja assinatura não bate (callback spoofado).
type RandomnessFulfilled struct {
	Token     string `json:"token"`
	Word      uint64 `json:"word"`
	Signature string `json:"signature"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
