package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/rng"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/store"
	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

// Store é o ledger de apostas mais a fronteira de liquidação. Cada método de
// transição aplica mudança de status e movimento de valor atomicamente; se a
// transferência falha, a transição inteira falha junto.
type Store interface {
	CreatePending(ctx context.Context, creator, choice string, stakeCents int64) (*store.Wager, error)
	Get(ctx context.Context, id int64) (*store.Wager, error)
	MatchAwait(ctx context.Context, id int64, matcher, token string) error
	MatchResolve(ctx context.Context, id int64, matcher, winner string, payoutCents, feeCents int64) error
	ResolveAwaiting(ctx context.Context, id int64, winner string, payoutCents, feeCents int64) error
	Cancel(ctx context.Context, id int64, creator string) error
	State(ctx context.Context) (*store.PlatformState, error)
	SetCollector(ctx context.Context, collector string) error
	SweepFees(ctx context.Context) (collector string, amountCents int64, err error)
}

// Publisher emite os eventos de ciclo de vida para o log de observadores.
// Falha de publicação não derruba a operação: o estado já está commitado.
type Publisher interface {
	PublishWagerCreated(ctx context.Context, e events.WagerCreated) error
	PublishWagerMatched(ctx context.Context, e events.WagerMatched) error
	PublishWagerResolved(ctx context.Context, e events.WagerResolved) error
	PublishWagerCancelled(ctx context.Context, e events.WagerCancelled) error
	PublishFeesWithdrawn(ctx context.Context, e events.FeesWithdrawn) error
	PublishCollectorChanged(ctx context.Context, e events.CollectorChanged) error
	PublishRandomnessRequested(ctx context.Context, e events.RandomnessRequested) error
}

type Config struct {
	// FeeBps é a taxa da casa em basis points sobre o pote total (2x stake).
	// 200 = 2.00%.
	FeeBps int64
	// ExplicitCounterChoice exige que o matcher declare o palpite complementar
	// em vez de só depositar o stake equivalente.
	ExplicitCounterChoice bool
}

// Engine implementa a máquina de estados do ciclo de vida de uma aposta:
// create, match, cancel e resolve, com as regras de validação e o rateio
// payout/taxa.
type Engine struct {
	log        *zap.Logger
	store      Store
	src        rng.Source
	correlator rng.Correlator // nil na variante síncrona
	pub        Publisher
	cfg        Config
}

func New(log *zap.Logger, st Store, src rng.Source, corr rng.Correlator, pub Publisher, cfg Config) *Engine {
	return &Engine{log: log, store: st, src: src, correlator: corr, pub: pub, cfg: cfg}
}

// Create abre uma aposta: valida stake e palpite, bloqueia o stake do criador
// e insere a aposta PENDING com o próximo id do contador.
func (e *Engine) Create(ctx context.Context, creator, choice string, stakeCents int64) (*store.Wager, error) {
	if stakeCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if !store.ValidChoice(choice) {
		return nil, ErrInvalidChoice
	}

	w, err := e.store.CreatePending(ctx, creator, choice, stakeCents)
	if err != nil {
		return nil, err
	}

	if err := e.pub.PublishWagerCreated(ctx, events.WagerCreated{
		WagerID:    w.ID,
		Creator:    w.Creator,
		Choice:     w.CreatorChoice,
		StakeCents: w.StakeCents,
		TsUnixMs:   time.Now().UnixMilli(),
	}); err != nil {
		e.log.Warn("publish wager_created", zap.Int64("wagerId", w.ID), zap.Error(err))
	}

	return w, nil
}

// Match casa uma aposta PENDING. Na variante síncrona a resolução acontece na
// mesma operação (PENDING -> RESOLVED atômico); na assíncrona a aposta fica
// MATCHED_AWAITING_RESULT até o callback do oráculo.
//
// counterChoice só é considerado com ExplicitCounterChoice ligado; nesse modo
// o matcher precisa declarar o palpite complementar ao do criador.
func (e *Engine) Match(ctx context.Context, matcher string, id int64, amountCents int64, counterChoice string) (*store.Wager, error) {
	w, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != store.StatusPending {
		return nil, store.ErrNotPending
	}
	// redundante com o status, mas é a guarda explícita contra double-match
	if w.Counterparty != "" {
		return nil, ErrAlreadyMatched
	}
	if matcher == w.Creator {
		return nil, ErrSelfMatch
	}
	if amountCents != w.StakeCents {
		return nil, ErrAmountMismatch
	}
	if e.cfg.ExplicitCounterChoice {
		if !store.ValidChoice(counterChoice) {
			return nil, ErrInvalidChoice
		}
		if counterChoice != store.OppositeChoice(w.CreatorChoice) {
			return nil, ErrChoiceMismatch
		}
	}

	draw, err := e.src.Obtain(ctx, w, matcher)
	if err != nil {
		return nil, err
	}

	if draw.Deferred {
		if err := e.store.MatchAwait(ctx, id, matcher, draw.Token); err != nil {
			// match frustrado: descarta o token para nenhum callback usá-lo
			if e.correlator != nil {
				if _, cerr := e.correlator.Consume(ctx, draw.Token); cerr != nil && cerr != rng.ErrUnknownRequest {
					e.log.Error("discard request token", zap.String("token", draw.Token), zap.Error(cerr))
				}
			}
			return nil, err
		}
		// o pedido ao oráculo só sai depois da transição commitar
		if perr := e.pub.PublishRandomnessRequested(ctx, events.RandomnessRequested{
			Token:    draw.Token,
			WagerID:  id,
			TsUnixMs: time.Now().UnixMilli(),
		}); perr != nil {
			e.log.Warn("publish randomness_requested", zap.Int64("wagerId", id), zap.Error(perr))
		}
		e.publishMatched(ctx, id, matcher, w.StakeCents, draw.Token)
		return e.store.Get(ctx, id)
	}

	winner, outcome := e.decide(w.Creator, matcher, w.CreatorChoice, draw.Word)
	payout, fee := e.split(w.StakeCents)
	if err := e.store.MatchResolve(ctx, id, matcher, winner, payout, fee); err != nil {
		return nil, err
	}
	e.publishMatched(ctx, id, matcher, w.StakeCents, "")
	e.publishResolved(ctx, id, outcome, winner, payout, fee)
	return e.store.Get(ctx, id)
}

// ResolveFulfillment processa o callback do oráculo. O token identifica a
// requisição em voo; consumi-lo é o que rejeita callbacks duplicados. Um
// callback para aposta já resolvida/cancelada é no-op deliberado (applied
// false), porque o provedor pode reentregar.
func (e *Engine) ResolveFulfillment(ctx context.Context, token string, word uint64) (w *store.Wager, applied bool, err error) {
	if e.correlator == nil {
		return nil, false, rng.ErrUnknownRequest
	}

	id, err := e.correlator.Consume(ctx, token)
	if err != nil {
		return nil, false, err
	}

	w, err = e.store.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if w.Status != store.StatusAwaitingResult {
		return w, false, nil
	}
	// só o token registrado na aposta autoriza a resolução; entrada órfã de
	// um match frustrado é no-op
	if w.RequestToken != token {
		return w, false, nil
	}

	winner, outcome := e.decide(w.Creator, w.Counterparty, w.CreatorChoice, word)
	payout, fee := e.split(w.StakeCents)
	if err := e.store.ResolveAwaiting(ctx, id, winner, payout, fee); err != nil {
		if err == store.ErrNotAwaiting {
			return w, false, nil
		}
		// Falha transitória de liquidação: a transição inteira foi revertida,
		// então devolvemos a entrada ao correlator para o reenvio do callback
		// poder reprocessar.
		if ferr := e.correlator.File(ctx, token, id); ferr != nil {
			e.log.Error("refile request token", zap.String("token", token), zap.Error(ferr))
		}
		return nil, false, err
	}

	e.publishResolved(ctx, id, outcome, winner, payout, fee)

	w, err = e.store.Get(ctx, id)
	return w, true, err
}

// Cancel estorna uma aposta ainda PENDING; só o criador pode cancelar.
// Irreversível: uma aposta cancelada nunca mais é casada nem resolvida.
func (e *Engine) Cancel(ctx context.Context, caller string, id int64) (*store.Wager, error) {
	w, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != store.StatusPending {
		return nil, store.ErrNotPending
	}
	if caller != w.Creator {
		return nil, ErrNotCreator
	}

	if err := e.store.Cancel(ctx, id, w.Creator); err != nil {
		return nil, err
	}

	if err := e.pub.PublishWagerCancelled(ctx, events.WagerCancelled{
		WagerID:     id,
		Creator:     w.Creator,
		RefundCents: w.StakeCents,
		TsUnixMs:    time.Now().UnixMilli(),
	}); err != nil {
		e.log.Warn("publish wager_cancelled", zap.Int64("wagerId", id), zap.Error(err))
	}

	return e.store.Get(ctx, id)
}

// Wager é a superfície de leitura por id
func (e *Engine) Wager(ctx context.Context, id int64) (*store.Wager, error) {
	return e.store.Get(ctx, id)
}

// Platform retorna contador, taxas acumuladas e collector
func (e *Engine) Platform(ctx context.Context) (*store.PlatformState, error) {
	return e.store.State(ctx)
}

// SetCollector troca o destinatário das taxas (autorização é da camada HTTP)
func (e *Engine) SetCollector(ctx context.Context, collector string) error {
	if collector == "" {
		return ErrInvalidCollector
	}
	if err := e.store.SetCollector(ctx, collector); err != nil {
		return err
	}
	if err := e.pub.PublishCollectorChanged(ctx, events.CollectorChanged{
		Collector: collector,
		TsUnixMs:  time.Now().UnixMilli(),
	}); err != nil {
		e.log.Warn("publish collector_changed", zap.Error(err))
	}
	return nil
}

// WithdrawFees paga o saldo integral do acumulador ao collector atual e zera o
// acumulador. Falha com store.ErrNoFees quando não há nada acumulado.
func (e *Engine) WithdrawFees(ctx context.Context) (collector string, amountCents int64, err error) {
	state, err := e.store.State(ctx)
	if err != nil {
		return "", 0, err
	}
	if state.FeeCollector == "" {
		return "", 0, ErrInvalidCollector
	}

	collector, amountCents, err = e.store.SweepFees(ctx)
	if err != nil {
		return "", 0, err
	}

	if err := e.pub.PublishFeesWithdrawn(ctx, events.FeesWithdrawn{
		Collector:   collector,
		AmountCents: amountCents,
		TsUnixMs:    time.Now().UnixMilli(),
	}); err != nil {
		e.log.Warn("publish fees_withdrawn", zap.Error(err))
	}

	return collector, amountCents, nil
}

// decide deriva o resultado da paridade da palavra sorteada: o criador ganha
// quando a paridade bate com o palpite dele, senão ganha o matcher (que toma
// implicitamente o lado complementar).
func (e *Engine) decide(creator, matcher, creatorChoice string, word uint64) (winner, outcome string) {
	outcome = store.ChoiceOdd
	if word%2 == 0 {
		outcome = store.ChoiceEven
	}
	if outcome == creatorChoice {
		return creator, outcome
	}
	return matcher, outcome
}

// split rateia o pote total (2x stake) entre payout e taxa da casa.
// Divisão inteira: payout + fee == pote, sempre.
func (e *Engine) split(stakeCents int64) (payoutCents, feeCents int64) {
	pot := 2 * stakeCents
	feeCents = pot * e.cfg.FeeBps / 10_000
	return pot - feeCents, feeCents
}

func (e *Engine) publishMatched(ctx context.Context, id int64, matcher string, stakeCents int64, token string) {
	if err := e.pub.PublishWagerMatched(ctx, events.WagerMatched{
		WagerID:      id,
		Counterparty: matcher,
		StakeCents:   stakeCents,
		RequestToken: token,
		TsUnixMs:     time.Now().UnixMilli(),
	}); err != nil {
		e.log.Warn("publish wager_matched", zap.Int64("wagerId", id), zap.Error(err))
	}
}

func (e *Engine) publishResolved(ctx context.Context, id int64, outcome, winner string, payoutCents, feeCents int64) {
	if err := e.pub.PublishWagerResolved(ctx, events.WagerResolved{
		WagerID:     id,
		Outcome:     outcome,
		Winner:      winner,
		PayoutCents: payoutCents,
		FeeCents:    feeCents,
		TsUnixMs:    time.Now().UnixMilli(),
	}); err != nil {
		e.log.Warn("publish wager_resolved", zap.Int64("wagerId", id), zap.Error(err))
	}
}
