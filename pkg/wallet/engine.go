// Package wallet implements the wallet engine (§4.4): the state machine
// that mutates a balance exactly once per unique (partner, reference-id)
// request, under a row lock, with a precise audit trail.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/gamewallet/pkg/cache"
	"github.com/amirasaad/gamewallet/pkg/crypto"
	"github.com/amirasaad/gamewallet/pkg/decorator"
	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/amirasaad/gamewallet/pkg/eventbus"
	"github.com/amirasaad/gamewallet/pkg/money"
	"github.com/amirasaad/gamewallet/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// balanceCacheTTL bounds how long a GetBalance read can serve a stale
// value after a mutation that didn't manage to invalidate the cache.
const balanceCacheTTL = 60 * time.Second

// Request carries the common contract every wallet operation takes
// (§4.4.1). Amount and Currency are ignored for Rollback, whose effect is
// derived entirely from the transaction it reverses.
type Request struct {
	PartnerID     uuid.UUID
	PlayerID      string
	ReferenceID   string
	Amount        decimal.Decimal
	Currency      string
	GameID        *string
	GameSessionID *string
	Metadata      map[string]string

	// OriginalTransactionID lets Win reference the bet it pays out.
	OriginalTransactionID *uuid.UUID
	// OriginalReferenceID is required for Rollback: the reference-id of
	// the transaction being reversed.
	OriginalReferenceID string
}

// Result is what every operation returns (§4.4.1).
type Result struct {
	Balance       decimal.Decimal
	TransactionID uuid.UUID
	Type          domain.TransactionType
	Status        domain.TransactionStatus
}

// Engine runs the deposit/withdraw/bet/win/rollback operations of §4.4,
// each wrapped by the transaction decorator's begin/commit/rollback
// lifecycle (pkg/decorator).
type Engine struct {
	transaction decorator.TransactionDecorator
	cipher      *crypto.AmountCipher
	bus         eventbus.Bus
	cache       cache.Cache
	logger      *slog.Logger
}

func NewEngine(transaction decorator.TransactionDecorator, cipher *crypto.AmountCipher, bus eventbus.Bus, balanceCache cache.Cache, logger *slog.Logger) *Engine {
	return &Engine{transaction: transaction, cipher: cipher, bus: bus, cache: balanceCache, logger: logger}
}

// Balance is GetBalance's result: the wallet's current amount and its
// fixed currency.
type Balance struct {
	Amount   decimal.Decimal
	Currency string
}

type cachedBalance struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func balanceCacheKey(playerID string, partnerID uuid.UUID) string {
	return fmt.Sprintf("wallet:%s:%s", playerID, partnerID)
}

// GetBalance implements the cache-first wallet read: a cache hit is
// served directly, a miss falls back to an unlocked repository read and
// backfills the cache. A cache outage degrades silently to the
// repository path — correctness never depends on cache state.
func (e *Engine) GetBalance(ctx context.Context, partnerID uuid.UUID, playerID string) (*Balance, error) {
	key := balanceCacheKey(playerID, partnerID)
	if e.cache != nil {
		if raw, ok, err := e.cache.Get(ctx, key); err == nil && ok {
			var cb cachedBalance
			if err := json.Unmarshal(raw, &cb); err == nil {
				return &Balance{Amount: cb.Amount, Currency: cb.Currency}, nil
			}
		}
	}

	var bal *Balance
	err := e.transaction.ExecuteWithUnitOfWork(func(uow repository.UnitOfWork) error {
		wallet, err := uow.Wallets().FindByPlayerPartner(ctx, playerID, partnerID)
		if err != nil {
			return err
		}
		bal = &Balance{Amount: wallet.Balance, Currency: wallet.Currency}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.cacheBalance(ctx, playerID, partnerID, *bal)
	return bal, nil
}

func (e *Engine) cacheBalance(ctx context.Context, playerID string, partnerID uuid.UUID, bal Balance) {
	if e.cache == nil {
		return
	}
	raw, err := json.Marshal(cachedBalance{Amount: bal.Amount, Currency: bal.Currency})
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, balanceCacheKey(playerID, partnerID), raw, balanceCacheTTL); err != nil {
		e.logger.Warn("wallet: failed to cache balance", "player_id", playerID, "error", err)
	}
}

func (e *Engine) invalidateBalanceCache(ctx context.Context, playerID string, partnerID uuid.UUID) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, balanceCacheKey(playerID, partnerID)); err != nil {
		e.logger.Warn("wallet: failed to invalidate cached balance", "player_id", playerID, "error", err)
	}
}

func (e *Engine) Deposit(ctx context.Context, req Request) (*Result, error) {
	return e.runMutation(ctx, domain.TransactionDeposit, req)
}

func (e *Engine) Withdraw(ctx context.Context, req Request) (*Result, error) {
	return e.runMutation(ctx, domain.TransactionWithdrawal, req)
}

func (e *Engine) Bet(ctx context.Context, req Request) (*Result, error) {
	return e.runMutation(ctx, domain.TransactionBet, req)
}

func (e *Engine) Win(ctx context.Context, req Request) (*Result, error) {
	return e.runMutation(ctx, domain.TransactionWin, req)
}

// runMutation implements §4.4.3's transactional sequence for every
// operation except Rollback: re-check idempotency, lock the wallet, apply
// the rule, write the transaction, update the balance, commit.
func (e *Engine) runMutation(ctx context.Context, txType domain.TransactionType, req Request) (*Result, error) {
	amt, err := money.New(req.Amount, req.Currency)
	if err != nil {
		return nil, mapMoneyErr(err)
	}

	var result *Result
	var published *domain.Transaction
	err = e.transaction.ExecuteWithUnitOfWork(func(uow repository.UnitOfWork) error {
		if r, done, err := checkIdempotency(ctx, uow, txType, req, amt); done || err != nil {
			result = r
			return err
		}

		wallet, err := e.findOrCreateWallet(ctx, uow, txType, req, amt.Currency())
		if err != nil {
			return err
		}
		if wallet.Locked {
			return domain.ErrWalletLocked
		}

		newBalance, err := applyMutationRule(txType, wallet.Balance, amt)
		if err != nil {
			return mapMoneyErr(err)
		}

		tx, err := e.buildTransaction(txType, req, amt, wallet, newBalance, nil)
		if err != nil {
			return err
		}
		if err := uow.Transactions().Insert(ctx, *tx); err != nil {
			return err
		}
		if err := uow.Wallets().UpdateBalance(ctx, wallet.ID, newBalance); err != nil {
			return err
		}

		result = &Result{Balance: newBalance, TransactionID: tx.ID, Type: tx.Type, Status: tx.Status}
		published = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	if published != nil {
		e.invalidateBalanceCache(ctx, req.PlayerID, req.PartnerID)
		e.publish(ctx, *published)
	}
	return result, nil
}

// Rollback implements §4.4.5's rollback semantics: it requires
// OriginalReferenceID to point to a completed bet, win, or withdrawal of
// the same wallet that has not already been rolled back, then inverts
// that transaction's balance change and marks it canceled. Rollback's own
// idempotency is keyed on its own ReferenceID like every other operation.
func (e *Engine) Rollback(ctx context.Context, req Request) (*Result, error) {
	var result *Result
	var published *domain.Transaction
	err := e.transaction.ExecuteWithUnitOfWork(func(uow repository.UnitOfWork) error {
		original, err := uow.Transactions().FindByReference(ctx, req.PartnerID, req.OriginalReferenceID)
		if err != nil {
			return err
		}
		if original.PlayerID != req.PlayerID {
			return domain.ErrNotFound
		}
		if (original.Type != domain.TransactionBet && original.Type != domain.TransactionWin &&
			original.Type != domain.TransactionWithdrawal) ||
			(original.Status != domain.TransactionCompleted && original.Status != domain.TransactionCanceled) {
			return domain.ErrNotFound
		}

		existing, err := uow.Transactions().FindByReference(ctx, req.PartnerID, req.ReferenceID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			if existing.Type == domain.TransactionRollback && existing.PlayerID == req.PlayerID &&
				existing.OriginalTransactionID != nil && *existing.OriginalTransactionID == original.ID {
				result = resultFromTransaction(*existing)
				return nil
			}
			return domain.ErrIdempotencyConflict
		}

		if original.Status == domain.TransactionCanceled {
			return domain.ErrAlreadyRolledBack
		}

		wallet, err := uow.Wallets().FindForUpdate(ctx, req.PlayerID, req.PartnerID)
		if err != nil {
			return err
		}
		if wallet.ID != original.WalletID {
			return domain.ErrNotFound
		}

		newBalance, err := invertBalance(wallet.Balance, original)
		if err != nil {
			return mapMoneyErr(err)
		}

		amt, err := money.New(original.PlainAmount, original.Currency)
		if err != nil {
			return err
		}
		tx, err := e.buildTransaction(domain.TransactionRollback, req, amt, wallet, newBalance, &original.ID)
		if err != nil {
			return err
		}
		if err := uow.Transactions().Insert(ctx, *tx); err != nil {
			return err
		}
		if err := uow.Wallets().UpdateBalance(ctx, wallet.ID, newBalance); err != nil {
			return err
		}
		if err := uow.Transactions().UpdateStatus(ctx, original.ID, domain.TransactionCanceled); err != nil {
			return err
		}

		result = &Result{Balance: newBalance, TransactionID: tx.ID, Type: tx.Type, Status: tx.Status}
		published = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	if published != nil {
		e.invalidateBalanceCache(ctx, req.PlayerID, req.PartnerID)
		e.publish(ctx, *published)
	}
	return result, nil
}

// checkIdempotency implements §4.4.2: a terminal record under the same
// (partner, reference-id) either short-circuits the operation with its
// stored result, or — if the new request diverges — fails the operation
// with idempotency-conflict without touching the balance.
func checkIdempotency(ctx context.Context, uow repository.UnitOfWork, txType domain.TransactionType, req Request, amt money.Money) (*Result, bool, error) {
	existing, err := uow.Transactions().FindByReference(ctx, req.PartnerID, req.ReferenceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if existing.Matches(txType, req.PlayerID, amt.Amount(), amt.Currency()) {
		return resultFromTransaction(*existing), true, nil
	}
	return nil, true, domain.ErrIdempotencyConflict
}

func resultFromTransaction(tx domain.Transaction) *Result {
	return &Result{Balance: tx.UpdatedBalance, TransactionID: tx.ID, Type: tx.Type, Status: tx.Status}
}

// findOrCreateWallet implements the lazy-creation asymmetry: credit
// operations may create a zero-balance wallet on first sight; debit
// operations must find one that already exists. A wallet is unique per
// (player, partner); a request naming a different currency than an
// existing wallet's is a currency mismatch, not a second wallet.
func (e *Engine) findOrCreateWallet(ctx context.Context, uow repository.UnitOfWork, txType domain.TransactionType, req Request, currencyCode string) (*domain.Wallet, error) {
	wallet, err := uow.Wallets().FindForUpdate(ctx, req.PlayerID, req.PartnerID)
	if err == nil {
		if wallet.Currency != currencyCode {
			return nil, domain.ErrCurrencyMismatch
		}
		return wallet, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if !txType.Credit() {
		return nil, domain.ErrNotFound
	}
	fresh := domain.NewWallet(req.PlayerID, req.PartnerID, currencyCode)
	if err := uow.Wallets().Create(ctx, fresh); err != nil {
		return nil, err
	}
	return &fresh, nil
}

// applyMutationRule computes the post-mutation balance through
// money.Money so currency divergence surfaces as money.ErrCurrencyMismatch
// rather than silently mismatched decimal arithmetic.
func applyMutationRule(txType domain.TransactionType, balance decimal.Decimal, amt money.Money) (decimal.Decimal, error) {
	bal, err := money.Balance(balance, amt.Currency())
	if err != nil {
		return decimal.Zero, err
	}
	if txType.Credit() {
		sum, err := bal.Add(amt)
		if err != nil {
			return decimal.Zero, err
		}
		return sum.Amount(), nil
	}
	short, err := bal.LessThan(amt)
	if err != nil {
		return decimal.Zero, err
	}
	if short {
		return decimal.Zero, domain.ErrInsufficientFunds
	}
	diff, err := bal.Sub(amt)
	if err != nil {
		return decimal.Zero, err
	}
	return diff.Amount(), nil
}

// invertBalance computes a rollback's resulting balance. Reversing a
// debit (bet, withdrawal) always adds the amount back. Reversing a
// credit (win) subtracts it, and must refuse to drive the balance
// negative: the player may have already spent the credited amount.
func invertBalance(balance decimal.Decimal, original *domain.Transaction) (decimal.Decimal, error) {
	bal, err := money.Balance(balance, original.Currency)
	if err != nil {
		return decimal.Zero, err
	}
	amt, err := money.Balance(original.PlainAmount, original.Currency)
	if err != nil {
		return decimal.Zero, err
	}
	if !original.Type.Credit() {
		sum, err := bal.Add(amt)
		if err != nil {
			return decimal.Zero, err
		}
		return sum.Amount(), nil
	}
	short, err := bal.LessThan(amt)
	if err != nil {
		return decimal.Zero, err
	}
	if short {
		return decimal.Zero, domain.ErrInsufficientFunds
	}
	diff, err := bal.Sub(amt)
	if err != nil {
		return decimal.Zero, err
	}
	return diff.Amount(), nil
}

func (e *Engine) buildTransaction(txType domain.TransactionType, req Request, amt money.Money, wallet *domain.Wallet, newBalance decimal.Decimal, originalID *uuid.UUID) (*domain.Transaction, error) {
	encAmount, err := e.cipher.Encrypt([]byte(amt.Amount().String()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	now := time.Now().UTC()
	if originalID == nil {
		originalID = req.OriginalTransactionID
	}
	return &domain.Transaction{
		ID:                    uuid.New(),
		ReferenceID:           req.ReferenceID,
		WalletID:              wallet.ID,
		PartnerID:             req.PartnerID,
		PlayerID:              req.PlayerID,
		Type:                  txType,
		EncAmount:             encAmount,
		PlainAmount:           amt.Amount(),
		Currency:              amt.Currency(),
		Status:                domain.TransactionCompleted,
		OriginalBalance:       wallet.Balance,
		UpdatedBalance:        newBalance,
		OriginalTransactionID: originalID,
		GameID:                req.GameID,
		GameSessionID:         req.GameSessionID,
		Metadata:              req.Metadata,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// publish emits wallet.transaction.created per §4.4.6. Publication must
// never fail the operation, which has already committed by the time this
// runs; eventbus.Bus.Emit blocks at most for the bus's bounded queue
// backpressure and its error is logged, never returned.
func (e *Engine) publish(ctx context.Context, tx domain.Transaction) {
	evt := domain.WalletTransactionCreated{
		TransactionID:  tx.ID,
		WalletID:       tx.WalletID,
		PlayerID:       tx.PlayerID,
		PartnerID:      tx.PartnerID,
		TransactionType: tx.Type,
		Currency:       tx.Currency,
		Amount:         tx.PlainAmount,
		UpdatedBalance: tx.UpdatedBalance,
		GameID:         tx.GameID,
		GameSessionID:  tx.GameSessionID,
		OccurredAt:     tx.CreatedAt,
	}
	if err := e.bus.Emit(ctx, evt); err != nil {
		e.logger.Error("wallet: failed to emit transaction event", "transaction_id", tx.ID, "error", err)
	}
}

func mapMoneyErr(err error) error {
	switch {
	case errors.Is(err, money.ErrCurrencyMismatch):
		return domain.ErrCurrencyMismatch
	case errors.Is(err, money.ErrInvalidScale), errors.Is(err, money.ErrNegativeAmount):
		return domain.ErrInvalidAmount
	default:
		return err
	}
}
