package events

// Eventos de ciclo de vida publicados pelo wager-service e pelo
// vrf-callback-worker. Formam o log ordenado consumido por indexadores/UIs.

type WagerCreated struct {
	WagerID    int64  `json:"wager_id"`
	Creator    string `json:"creator"`
	Choice     string `json:"choice"` // "EVEN" | "ODD"
	StakeCents int64  `json:"stake_cents"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}

type WagerMatched struct {
	WagerID      int64  `json:"wager_id"`
	Counterparty string `json:"counterparty"`
	StakeCents   int64  `json:"stake_cents"`
	RequestToken string `json:"request_token,omitempty"` // presente só na variante assíncrona
	TsUnixMs     int64  `json:"ts_unix_ms"`
}

type WagerResolved struct {
	WagerID     int64  `json:"wager_id"`
	Outcome     string `json:"outcome"` // "EVEN" | "ODD"
	Winner      string `json:"winner"`
	PayoutCents int64  `json:"payout_cents"`
	FeeCents    int64  `json:"fee_cents"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}

type WagerCancelled struct {
	WagerID     int64  `json:"wager_id"`
	Creator     string `json:"creator"`
	RefundCents int64  `json:"refund_cents"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}

type FeesWithdrawn struct {
	Collector   string `json:"collector"`
	AmountCents int64  `json:"amount_cents"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}

type CollectorChanged struct {
	Collector string `json:"collector"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
