package dto

import "time"

type WalletResponse struct {
	UserID       string `json:"userId"`
	WalletID     string `json:"walletId"`
	BalanceCents int64  `json:"balance_cents"`
}

type LedgerEntryResponse struct {
	OperationType  string    `json:"operation_type"`
	AmountCents    int64     `json:"amount_cents"`
	Description    string    `json:"description"`
	RelatedWagerID *int64    `json:"related_wager_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
