// Package aml implements the AML analyzer (§4.6): it subscribes to
// wallet.transaction.created, evaluates the risk factors in factors.go
// against the player's recent history, folds the result into the
// player's rolling risk profile, and raises AMLAlerts when a score
// crosses one of §4.6.3's thresholds. Failures here never unwind the
// wallet transaction that triggered them (§4.6.4).
package aml

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/gamewallet/pkg/crypto"
	"github.com/amirasaad/gamewallet/pkg/currency"
	"github.com/amirasaad/gamewallet/pkg/decorator"
	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/amirasaad/gamewallet/pkg/eventbus"
	"github.com/amirasaad/gamewallet/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config bounds the analyzer's retry policy and history window, sourced
// from config.AML.
type Config struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
	HistoryWindow  time.Duration
}

// Analyzer is the sole subscriber to domain.EventWalletTransactionCreated.
// It is constructed once at startup and registered against the shared
// event bus (§9: no hidden globals, one explicit wiring point).
type Analyzer struct {
	transaction decorator.TransactionDecorator
	cipher      *crypto.AmountCipher
	bus         eventbus.Bus
	cfg         Config
	logger      *slog.Logger
}

// NewAnalyzer builds the analyzer and subscribes it to the bus. Callers
// don't need to hold onto the returned value except for tests; once
// registered, the bus drives it. cipher decrypts the amount-at-rest
// ciphertext on historical transactions pulled for pattern analysis;
// the triggering transaction's own amount travels in plaintext on the
// event (§4.4.6) and never needs decryption here.
func NewAnalyzer(transaction decorator.TransactionDecorator, cipher *crypto.AmountCipher, bus eventbus.Bus, cfg Config, logger *slog.Logger) *Analyzer {
	a := &Analyzer{
		transaction: transaction,
		cipher:      cipher,
		bus:         bus,
		cfg:         cfg,
		logger:      logger.With("component", "aml"),
	}
	bus.Register(domain.EventWalletTransactionCreated, a.handle)
	return a
}

// handle is the eventbus.HandlerFunc entrypoint. It implements §4.6.4's
// bounded exponential backoff itself, since the bus's own dispatch loop
// does not retry failed handlers (it only isolates and logs them). A
// permanent failure is recorded to the dead-letter sink and logged as an
// operational alert; it never propagates back to the wallet engine,
// which has already committed by the time this runs.
func (a *Analyzer) handle(ctx context.Context, event eventbus.Event) error {
	tx, ok := event.(domain.WalletTransactionCreated)
	if !ok {
		return nil
	}

	var lastErr error
	cancelled := false
	for attempt := 0; attempt <= a.cfg.MaxRetries && !cancelled; attempt++ {
		if attempt > 0 {
			delay := a.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				lastErr = ctx.Err()
				cancelled = true
				continue
			}
		}
		if lastErr = a.analyze(ctx, tx); lastErr == nil {
			return nil
		}
		a.logger.Warn("aml: analysis attempt failed", "transaction_id", tx.TransactionID, "attempt", attempt, "error", lastErr)
	}

	a.logger.Error("aml: analysis permanently failed, routing to dead letter", "transaction_id", tx.TransactionID, "error", lastErr)
	return a.transaction.ExecuteWithUnitOfWork(func(uow repository.UnitOfWork) error {
		return uow.DeadLetters().Record(ctx, "aml-analysis-failed", tx)
	})
}

// analyze runs steps 1-6 of §4.6 atomically inside a single unit of work.
// An event whose currency is not in the currency table fails analysis.
func (a *Analyzer) analyze(ctx context.Context, tx domain.WalletTransactionCreated) error {
	if _, err := currency.Get(tx.Currency); err != nil {
		return err
	}
	return a.transaction.ExecuteWithUnitOfWork(func(uow repository.UnitOfWork) error {
		profile, err := uow.AML().GetOrCreateProfile(ctx, tx.PlayerID, tx.PartnerID)
		if err != nil {
			return err
		}

		history, err := uow.Transactions().ListByPlayer(ctx, tx.PlayerID, tx.OccurredAt.Add(-a.cfg.HistoryWindow), -1)
		if err != nil {
			return err
		}
		a.decryptAmounts(history)
		scoped := scopeHistory(history, tx.PartnerID)

		factors, score := a.evaluate(tx, scoped)

		counters := recomputeCounters(scoped, tx.OccurredAt)
		profile.Deposit7dSum, profile.Deposit7dCount = counters.deposit7Sum, counters.deposit7Count
		profile.Withdraw7dSum, profile.Withdraw7dCount = counters.withdraw7Sum, counters.withdraw7Count
		profile.Deposit30dSum, profile.Deposit30dCount = counters.deposit30Sum, counters.deposit30Count
		profile.Withdraw30dSum, profile.Withdraw30dCount = counters.withdraw30Sum, counters.withdraw30Count
		profile.ApplyAnalysis(score, factors, tx.OccurredAt)

		if err := uow.AML().UpdateProfile(ctx, *profile); err != nil {
			return err
		}

		if alert, emit := decideAlert(tx, score, factors); emit {
			if err := uow.AML().InsertAlert(ctx, alert); err != nil {
				return err
			}
			a.publishAlert(ctx, alert, tx.OccurredAt)
		}
		return nil
	})
}

// evaluate computes every §4.6.1 factor against the transaction's scoped
// history and returns the clamped composite score alongside the factor
// breakdown (for the alert's audit trail and the profile's blob).
func (a *Analyzer) evaluate(tx domain.WalletTransactionCreated, history []domain.Transaction) ([]domain.RiskFactor, float64) {
	sameType := amountsOfType(history, tx.TransactionType)
	timestamps := timestampsOf(history)
	f24, f7avg, f30avg := frequencyWindows(history, tx.OccurredAt)
	recentDeposit, hasRecentDeposit := rapidDeposit(history, tx)

	factors := []domain.RiskFactor{
		largeValueFactor(tx.Amount, tx.Currency),
		amountDeviationFactor(tx.Amount, sameType),
		timePatternFactor(tx.OccurredAt, timestamps),
		frequencyDeviationFactor(f24, f7avg, f30avg),
		rapidDepositWithdrawalFactor(tx.TransactionType, tx.Amount, recentDeposit, hasRecentDeposit),
	}

	total := 0.0
	for _, f := range factors {
		if f.Detected {
			total += f.Score
		}
	}
	total += compositeBonus(factors)
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return factors, total
}

// decideAlert applies §4.6.3's threshold table. The "low" tier only
// fires with two or more detected factors; everything below 20 abstains.
// A detected large-value factor always requires a report and lifts the
// severity to at least high.
func decideAlert(tx domain.WalletTransactionCreated, score float64, factors []domain.RiskFactor) (domain.AMLAlert, bool) {
	detected := 0
	for _, f := range factors {
		if f.Detected {
			detected++
		}
	}

	var severity domain.AlertSeverity
	reportRequired := false
	switch {
	case score >= 80:
		severity, reportRequired = domain.SeverityCritical, true
	case score >= 60:
		severity = domain.SeverityHigh
	case score >= 40:
		severity = domain.SeverityMedium
	case score >= 20:
		if detected < 2 {
			return domain.AMLAlert{}, false
		}
		severity = domain.SeverityLow
	default:
		return domain.AMLAlert{}, false
	}

	for _, f := range factors {
		if f.Name == "large-value" && f.Detected {
			reportRequired = true
			if severity == domain.SeverityLow || severity == domain.SeverityMedium {
				severity = domain.SeverityHigh
			}
		}
	}

	txID := tx.TransactionID
	return domain.AMLAlert{
		ID:             uuid.New(),
		PlayerID:       tx.PlayerID,
		PartnerID:      tx.PartnerID,
		TransactionID:  &txID,
		Type:           alertType(factors),
		Severity:       severity,
		Status:         domain.AlertOpen,
		ScoreAtAlert:   score,
		FactorsAtAlert: factors,
		ReportRequired: reportRequired,
		CreatedAt:      tx.OccurredAt,
	}, true
}

// alertType reports "threshold" when the large-value factor alone drove
// the alert and "pattern" otherwise, matching §3's AlertType taxonomy.
func alertType(factors []domain.RiskFactor) domain.AlertType {
	largeValueOnly := false
	for _, f := range factors {
		if f.Name == "large-value" && f.Detected {
			largeValueOnly = true
			continue
		}
		if f.Detected {
			return domain.AlertPattern
		}
	}
	if largeValueOnly {
		return domain.AlertThreshold
	}
	return domain.AlertPattern
}

func (a *Analyzer) publishAlert(ctx context.Context, alert domain.AMLAlert, at time.Time) {
	evt := domain.AMLAlertCreated{Alert: alert, OccurredAt: at}
	if err := a.bus.Emit(ctx, evt); err != nil {
		a.logger.Error("aml: failed to emit alert event", "alert_id", alert.ID, "error", err)
	}
}

// decryptAmounts fills in PlainAmount on each loaded transaction from its
// encrypted-at-rest blob (§4.4's amount encryption survives even for the
// AML read path; §9 notes the cost of a decrypt on every audit read is
// accepted deliberately). A transaction whose blob fails to decrypt is
// left at zero and skipped by the factors that need a real amount,
// rather than aborting the whole analysis.
func (a *Analyzer) decryptAmounts(history []domain.Transaction) {
	for i := range history {
		plain, err := a.cipher.Decrypt(history[i].EncAmount)
		if err != nil {
			continue
		}
		amt, err := decimal.NewFromString(string(plain))
		if err != nil {
			continue
		}
		history[i].PlainAmount = amt
	}
}

// scopeHistory restricts a player's cross-partner transaction list to
// the partner this event belongs to, since risk profiles and their
// counters are per (player, partner), not global to the player (§3).
func scopeHistory(history []domain.Transaction, partnerID uuid.UUID) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(history))
	for _, t := range history {
		if t.PartnerID == partnerID && t.Status == domain.TransactionCompleted {
			out = append(out, t)
		}
	}
	return out
}

func amountsOfType(history []domain.Transaction, txType domain.TransactionType) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(history))
	for _, t := range history {
		if t.Type == txType && !t.PlainAmount.IsZero() {
			out = append(out, t.PlainAmount)
		}
	}
	return out
}

func timestampsOf(history []domain.Transaction) []time.Time {
	out := make([]time.Time, 0, len(history))
	for _, t := range history {
		out = append(out, t.CreatedAt)
	}
	return out
}

// frequencyWindows computes f24 (count in the trailing 24h) and the
// daily averages over the trailing 7 and 30 days, per the canonical
// frequency rule fixed by §9.
func frequencyWindows(history []domain.Transaction, at time.Time) (f24 int, f7avg, f30avg float64) {
	day24 := at.Add(-24 * time.Hour)
	day7 := at.Add(-7 * 24 * time.Hour)
	day30 := at.Add(-30 * 24 * time.Hour)

	count7, count30 := 0, 0
	for _, t := range history {
		if !t.CreatedAt.Before(day24) {
			f24++
		}
		if !t.CreatedAt.Before(day7) {
			count7++
		}
		if !t.CreatedAt.Before(day30) {
			count30++
		}
	}
	f7avg = float64(count7) / 7.0
	f30avg = float64(count30) / 30.0
	return
}

// rapidDeposit finds the largest deposit on the same wallet within the
// preceding 24h, the input rapidDepositWithdrawalFactor needs to decide
// whether it's comparable in magnitude to the current withdrawal.
func rapidDeposit(history []domain.Transaction, tx domain.WalletTransactionCreated) (decimal.Decimal, bool) {
	if tx.TransactionType != domain.TransactionWithdrawal {
		return decimal.Zero, false
	}
	window := tx.OccurredAt.Add(-24 * time.Hour)
	best := decimal.Zero
	found := false
	for _, t := range history {
		if t.Type != domain.TransactionDeposit || t.WalletID != tx.WalletID {
			continue
		}
		if t.CreatedAt.Before(window) || t.CreatedAt.After(tx.OccurredAt) {
			continue
		}
		if t.PlainAmount.GreaterThan(best) {
			best = t.PlainAmount
			found = true
		}
	}
	return best, found
}

type windowCounters struct {
	deposit7Sum, withdraw7Sum   float64
	deposit7Count, withdraw7Count int
	deposit30Sum, withdraw30Sum   float64
	deposit30Count, withdraw30Count int
}

// recomputeCounters rebuilds the profile's rolling counters from source
// on every analysis, per §4.6.2: they're recomputed, never incremented,
// so a missed or replayed event can never drift them out of sync.
func recomputeCounters(history []domain.Transaction, at time.Time) windowCounters {
	day7 := at.Add(-7 * 24 * time.Hour)
	day30 := at.Add(-30 * 24 * time.Hour)
	var c windowCounters
	for _, t := range history {
		amt, _ := t.PlainAmount.Float64()
		in7 := !t.CreatedAt.Before(day7)
		in30 := !t.CreatedAt.Before(day30)
		switch t.Type {
		case domain.TransactionDeposit:
			if in7 {
				c.deposit7Sum += amt
				c.deposit7Count++
			}
			if in30 {
				c.deposit30Sum += amt
				c.deposit30Count++
			}
		case domain.TransactionWithdrawal:
			if in7 {
				c.withdraw7Sum += amt
				c.withdraw7Count++
			}
			if in30 {
				c.withdraw30Sum += amt
				c.withdraw30Count++
			}
		}
	}
	return c
}
