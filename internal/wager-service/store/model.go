package store

import (
	"errors"
	"time"
)

// Status de uma aposta. Transições monotônicas:
// PENDING -> MATCHED_AWAITING_RESULT -> RESOLVED (variante assíncrona)
// PENDING -> RESOLVED                            (variante síncrona)
// PENDING -> CANCELLED
const (
	StatusPending        = "PENDING"
	StatusAwaitingResult = "MATCHED_AWAITING_RESULT"
	StatusResolved       = "RESOLVED"
	StatusCancelled      = "CANCELLED"
)

// Palpites possíveis sobre a paridade do sorteio
const (
	ChoiceEven = "EVEN"
	ChoiceOdd  = "ODD"
)

// Wager é o modelo persistido no Postgres.
type Wager struct {
	ID            int64
	Creator       string
	Counterparty  string // vazio até o match
	StakeCents    int64
	CreatorChoice string
	Status        string
	Winner        string // vazio até a resolução
	RequestToken  string // presente só enquanto aguarda callback do oráculo
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PlatformState é a linha única de estado global: contador de apostas,
// acumulador de taxas e collector atual.
type PlatformState struct {
	WagerCount       int64
	AccruedFeesCents int64
	FeeCollector     string
}

// Tipos de movimento registrados no wallet_ledger
const (
	OpDeposit       = "DEPOSIT"
	OpEscrow        = "ESCROW"
	OpPayout        = "PAYOUT"
	OpRefund        = "REFUND"
	OpFeeWithdrawal = "FEE_WITHDRAWAL"
)

var (
	ErrWagerNotFound     = errors.New("wager not found")
	ErrNotPending        = errors.New("wager is not pending")
	ErrNotAwaiting       = errors.New("wager is not awaiting result")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoFees            = errors.New("no fees accrued")
)

// ValidChoice informa se o palpite está no domínio EVEN/ODD.
func ValidChoice(c string) bool {
	return c == ChoiceEven || c == ChoiceOdd
}

// OppositeChoice devolve o palpite complementar.
func OppositeChoice(c string) string {
	if c == ChoiceEven {
		return ChoiceOdd
	}
	return ChoiceEven
}
