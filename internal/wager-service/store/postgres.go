package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Postgres implementa o ledger de apostas e a fronteira de liquidação.
// Cada operação pública roda numa única transação: a transição de status e o
// movimento de valor (escrow, payout, refund, taxa) são todos-ou-nada.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do store de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreatePending bloqueia o stake do criador e insere a aposta com status PENDING.
// O id vem do contador monotônico em platform_state e nunca é reutilizado.
func (p *Postgres) CreatePending(ctx context.Context, creator, choice string, stakeCents int64) (*Wager, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := debitWallet(ctx, tx, creator, stakeCents, OpEscrow, "escrow:create", nil); err != nil {
		return nil, err
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `
		UPDATE platform_state SET wager_count = wager_count + 1, updated_at = NOW()
		WHERE id = 1
		RETURNING wager_count`).Scan(&id); err != nil {
		return nil, err
	}

	w := &Wager{ID: id, Creator: creator, StakeCents: stakeCents, CreatorChoice: choice, Status: StatusPending}
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO wagers (id, creator, stake_cents, creator_choice, status)
		VALUES ($1,$2,$3,$4,'PENDING')
		RETURNING created_at, updated_at`,
		id, creator, stakeCents, choice,
	).Scan(&w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return w, nil
}

// Get retorna a aposta pelo id
func (p *Postgres) Get(ctx context.Context, id int64) (*Wager, error) {
	var w Wager
	var counterparty, winner, token sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT id, creator, counterparty, stake_cents, creator_choice, status, winner, request_token, created_at, updated_at
		FROM wagers WHERE id=$1`, id,
	).Scan(&w.ID, &w.Creator, &counterparty, &w.StakeCents, &w.CreatorChoice, &w.Status, &winner, &token, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrWagerNotFound
	}
	if err != nil {
		return nil, err
	}
	w.Counterparty = counterparty.String
	w.Winner = winner.String
	w.RequestToken = token.String
	return &w, nil
}

// MatchAwait bloqueia o stake do matcher e move a aposta para
// MATCHED_AWAITING_RESULT, registrando o token da requisição de aleatoriedade.
// Variante assíncrona: a resolução acontece depois, no callback.
func (p *Postgres) MatchAwait(ctx context.Context, id int64, matcher, token string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stake, err := lockPending(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := debitWallet(ctx, tx, matcher, stake, OpEscrow, "escrow:match", &id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wagers SET counterparty=$1, status='MATCHED_AWAITING_RESULT', request_token=$2, updated_at=NOW()
		WHERE id=$3`, matcher, token, id); err != nil {
		return err
	}

	return tx.Commit()
}

// MatchResolve executa match e resolução na mesma transação (variante síncrona):
// PENDING -> RESOLVED num passo atômico, com escrow do matcher, payout ao
// vencedor e crédito da taxa no acumulador.
func (p *Postgres) MatchResolve(ctx context.Context, id int64, matcher, winner string, payoutCents, feeCents int64) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stake, err := lockPending(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := debitWallet(ctx, tx, matcher, stake, OpEscrow, "escrow:match", &id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wagers SET counterparty=$1, winner=$2, status='RESOLVED', updated_at=NOW()
		WHERE id=$3`, matcher, winner, id); err != nil {
		return err
	}

	if err := settle(ctx, tx, id, winner, payoutCents, feeCents); err != nil {
		return err
	}

	return tx.Commit()
}

// ResolveAwaiting conclui uma aposta MATCHED_AWAITING_RESULT (callback do oráculo).
// Guarda explícita de status: um segundo callback encontra a aposta já resolvida
// e recebe ErrNotAwaiting; cabe ao motor tratar como no-op.
func (p *Postgres) ResolveAwaiting(ctx context.Context, id int64, winner string, payoutCents, feeCents int64) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM wagers WHERE id=$1 FOR UPDATE`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrWagerNotFound
	}
	if err != nil {
		return err
	}
	if status != StatusAwaitingResult {
		return ErrNotAwaiting
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wagers SET winner=$1, status='RESOLVED', request_token=NULL, updated_at=NOW()
		WHERE id=$2`, winner, id); err != nil {
		return err
	}

	if err := settle(ctx, tx, id, winner, payoutCents, feeCents); err != nil {
		return err
	}

	return tx.Commit()
}

// Cancel estorna o stake ao criador e marca a aposta como CANCELLED.
// Só apostas PENDING podem ser canceladas.
func (p *Postgres) Cancel(ctx context.Context, id int64, creator string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stake, err := lockPending(ctx, tx, id)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wagers SET status='CANCELLED', updated_at=NOW() WHERE id=$1`, id); err != nil {
		return err
	}

	if err := creditWallet(ctx, tx, creator, stake, OpRefund, "refund:cancel", &id); err != nil {
		return err
	}

	return tx.Commit()
}

// State retorna contador de apostas, taxas acumuladas e collector atual
func (p *Postgres) State(ctx context.Context) (*PlatformState, error) {
	var st PlatformState
	err := p.db.QueryRowContext(ctx, `
		SELECT wager_count, accrued_fees_cents, fee_collector FROM platform_state WHERE id=1`,
	).Scan(&st.WagerCount, &st.AccruedFeesCents, &st.FeeCollector)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SetCollector troca o destinatário das taxas
func (p *Postgres) SetCollector(ctx context.Context, collector string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE platform_state SET fee_collector=$1, updated_at=NOW() WHERE id=1`, collector)
	return err
}

// SweepFees transfere o saldo integral do acumulador para a carteira do
// collector e zera o acumulador, tudo na mesma transação.
func (p *Postgres) SweepFees(ctx context.Context) (collector string, amountCents int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	if err = tx.QueryRowContext(ctx, `
		SELECT accrued_fees_cents, fee_collector FROM platform_state WHERE id=1 FOR UPDATE`,
	).Scan(&amountCents, &collector); err != nil {
		return "", 0, err
	}

	if amountCents == 0 {
		return "", 0, ErrNoFees
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE platform_state SET accrued_fees_cents=0, updated_at=NOW() WHERE id=1`); err != nil {
		return "", 0, err
	}

	if err = creditWallet(ctx, tx, collector, amountCents, OpFeeWithdrawal, "fees:withdraw", nil); err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return collector, amountCents, nil
}

// lockPending trava a linha da aposta e garante status PENDING,
// devolvendo o stake armazenado.
func lockPending(ctx context.Context, tx *sql.Tx, id int64) (int64, error) {
	var status string
	var stake int64
	err := tx.QueryRowContext(ctx, `
		SELECT status, stake_cents FROM wagers WHERE id=$1 FOR UPDATE`, id).Scan(&status, &stake)
	if err == sql.ErrNoRows {
		return 0, ErrWagerNotFound
	}
	if err != nil {
		return 0, err
	}
	if status != StatusPending {
		return 0, ErrNotPending
	}
	return stake, nil
}

// settle credita o payout na carteira do vencedor e a taxa no acumulador
func settle(ctx context.Context, tx *sql.Tx, wagerID int64, winner string, payoutCents, feeCents int64) error {
	if err := creditWallet(ctx, tx, winner, payoutCents, OpPayout, "payout:resolve", &wagerID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE platform_state SET accrued_fees_cents = accrued_fees_cents + $1, updated_at=NOW()
		WHERE id=1`, feeCents)
	return err
}

// debitWallet trava a carteira do usuário, valida saldo e debita, registrando
// o movimento no wallet_ledger
func debitWallet(ctx context.Context, tx *sql.Tx, userID string, amount int64, op, desc string, wagerID *int64) error {
	var walletID string
	var balance int64
	err := tx.QueryRowContext(ctx, `
		SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		return ErrInsufficientFunds
	}
	if err != nil {
		return err
	}

	if balance < amount {
		return ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance_cents = balance_cents - $1, version = version + 1 WHERE id=$2`,
		amount, walletID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description, related_wager_id)
		VALUES($1,$2,$3,$4,$5)`, walletID, op, amount, desc, wagerID)
	return err
}

// creditWallet credita a carteira do usuário, criando-a se não existir
// (um payout/refund nunca pode falhar por carteira ausente)
func creditWallet(ctx context.Context, tx *sql.Tx, userID string, amount int64, op, desc string, wagerID *int64) error {
	var walletID string
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID)
	if err == sql.ErrNoRows {
		walletID = uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`,
			walletID, userID); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`,
		amount, walletID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description, related_wager_id)
		VALUES($1,$2,$3,$4,$5)`, walletID, op, amount, desc, wagerID)
	return err
}
