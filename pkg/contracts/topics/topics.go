package topics

const (
	// Ciclo de vida das apostas
	WagerCreated   = "wager_created"
	WagerMatched   = "wager_matched"
	WagerResolved  = "wager_resolved"
	WagerCancelled = "wager_cancelled"

	// Administração
	FeesWithdrawn    = "fees_withdrawn"
	CollectorChanged = "collector_changed"

	// Aleatoriedade (variante assíncrona / oráculo VRF)
	RandomnessRequested = "randomness_requested"
	RandomnessFulfilled = "randomness_fulfilled"

	// DLQs
	RandomnessFulfilledDLQ = "randomness_fulfilled_dlq"
)
