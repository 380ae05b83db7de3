package dto

import "time"

type WagerResponse struct {
	WagerID       int64     `json:"wagerId"`
	Creator       string    `json:"creator"`
	Counterparty  string    `json:"counterparty,omitempty"`
	StakeCents    int64     `json:"stake_cents"`
	CreatorChoice string    `json:"creator_choice"`
	Status        string    `json:"status"`
	Winner        string    `json:"winner,omitempty"`
	RequestToken  string    `json:"request_token,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PlatformResponse struct {
	WagerCount       int64  `json:"wager_count"`
	AccruedFeesCents int64  `json:"accrued_fees_cents"`
	FeeCollector     string `json:"fee_collector,omitempty"`
}

type WithdrawFeesResponse struct {
	Collector   string `json:"collector"`
	AmountCents int64  `json:"amount_cents"`
}
