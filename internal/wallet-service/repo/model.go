package repo

import "time"

// LedgerEntry é um movimento do wallet_ledger (auditoria de toda
// movimentação de valor: depósitos, escrow, payouts, estornos, taxas).
type LedgerEntry struct {
	OperationType  string
	AmountCents    int64
	Description    string
	RelatedWagerID *int64
	CreatedAt      time.Time
}
