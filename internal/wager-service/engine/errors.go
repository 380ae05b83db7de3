package engine

import "errors"

// Erros de validação e de estado do ciclo de vida. Erros de saldo e de status
// concorrente vêm do store (store.ErrInsufficientFunds, store.ErrNotPending...);
// erros de requisição desconhecida vêm do rng (rng.ErrUnknownRequest).
var (
	ErrInvalidAmount    = errors.New("stake must be positive")
	ErrInvalidChoice    = errors.New("choice must be EVEN or ODD")
	ErrAmountMismatch   = errors.New("match amount must equal the stake")
	ErrSelfMatch        = errors.New("creator cannot match their own wager")
	ErrAlreadyMatched   = errors.New("wager already has a counterparty")
	ErrChoiceMismatch   = errors.New("counter choice must be the complement of the creator choice")
	ErrNotCreator       = errors.New("only the creator can cancel")
	ErrInvalidCollector = errors.New("collector must not be empty")
)
