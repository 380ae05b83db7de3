package dto

type CreateWagerRequest struct {
	UserID     string `json:"userId"`
	Choice     string `json:"choice"` // "EVEN" | "ODD"
	StakeCents int64  `json:"stake_cents"`
}

type MatchWagerRequest struct {
	UserID     string `json:"userId"`
	StakeCents int64  `json:"stake_cents"` // precisa bater exato com o stake da aposta
	Choice     string `json:"choice,omitempty"` // exigido só com EXPLICIT_COUNTER_CHOICE
}

type CancelWagerRequest struct {
	UserID string `json:"userId"`
}

type SetCollectorRequest struct {
	Collector string `json:"collector"`
}
