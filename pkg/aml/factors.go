package aml

import (
	"math"
	"time"

	"github.com/amirasaad/gamewallet/pkg/currency"
	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/shopspring/decimal"
)

// largeValueFactor implements §4.6.1's large-value threshold check: fires
// when amount is at or above the currency's configured threshold, worth
// +40 and a regulatory-report requirement.
func largeValueFactor(amount decimal.Decimal, currencyCode string) domain.RiskFactor {
	meta, err := currency.Get(currencyCode)
	if err != nil {
		return domain.RiskFactor{Name: "large-value"}
	}
	if amount.GreaterThanOrEqual(meta.LargeValueThresh) {
		return domain.RiskFactor{Name: "large-value", Detected: true, Score: 40, Detail: "amount at or above currency threshold"}
	}
	return domain.RiskFactor{Name: "large-value"}
}

// amountDeviationFactor implements §4.6.1's amount pattern deviation:
// mean/stddev over same-type history (stddev floored at 1% of the mean
// to avoid sensitivity collapse on near-identical amounts), flagged when
// the z-score exceeds 2.5 or the amount falls more than 50% outside the
// historical [min, max] range. A detected deviation scores 25·min(1, z/5),
// so the score grows with the z-score and reaches the +25 cap at z = 5.
func amountDeviationFactor(amount decimal.Decimal, history []decimal.Decimal) domain.RiskFactor {
	if len(history) < 5 {
		return domain.RiskFactor{Name: "amount-deviation", Detail: "insufficient history"}
	}

	x := amount.InexactFloat64()
	mean, stddev, min, max := stats(history)
	if stddev < 0.01*mean {
		stddev = 0.01 * mean
	}
	if stddev == 0 {
		stddev = 0.01
	}

	z := math.Abs(x-mean) / stddev
	outsideRange := (min > 0 && x < min*0.5) || (max > 0 && x > max*1.5)

	if z <= 2.5 && !outsideRange {
		return domain.RiskFactor{Name: "amount-deviation", Detail: "within normal range"}
	}

	severity := math.Min(1.0, z/5.0)
	return domain.RiskFactor{
		Name:     "amount-deviation",
		Detected: true,
		Score:    25 * severity,
		Detail:   "amount deviates from player's historical pattern",
	}
}

func stats(values []decimal.Decimal) (mean, stddev, min, max float64) {
	sum := 0.0
	min = math.MaxFloat64
	for _, v := range values {
		f := v.InexactFloat64()
		sum += f
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	mean = sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v.InexactFloat64() - mean
		variance += d * d
	}
	variance /= float64(len(values))
	stddev = math.Sqrt(variance)
	return
}

// timePatternFactor implements §4.6.1's time pattern deviation: bins the
// player's last 30 days by hour-of-day and weekday, and fires when the
// current transaction's hour bin or weekday bin holds fewer than
// max(1, total/10) historical transactions, i.e. under a tenth of the
// history (an empty bin always counts as low). The cut-off is this share
// of the total count, not a percentile of the per-bin counts.
func timePatternFactor(at time.Time, history []time.Time) domain.RiskFactor {
	if len(history) < 5 {
		return domain.RiskFactor{Name: "time-deviation", Detail: "insufficient history"}
	}

	hourCounts := make(map[int]int)
	dayCounts := make(map[time.Weekday]int)
	for _, t := range history {
		hourCounts[t.Hour()]++
		dayCounts[t.Weekday()]++
	}

	total := len(history)
	minActivity := max(1, total/10)

	hourOK := hourCounts[at.Hour()] >= minActivity
	dayOK := dayCounts[at.Weekday()] >= minActivity

	if hourOK && dayOK {
		return domain.RiskFactor{Name: "time-deviation", Detail: "within normal hours and days"}
	}
	return domain.RiskFactor{
		Name:     "time-deviation",
		Detected: true,
		Score:    15,
		Detail:   "transaction falls in a low-activity hour/weekday bin",
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// frequencyDeviationFactor implements the canonical rule fixed by §9's
// design note: f24 > 3·max(f7, f30) and f24 ≥ 4, where f7/f30 are daily
// averages over the trailing 7/30 day windows. Abstains (no contribution,
// Detected false) when there's no history to compare against.
func frequencyDeviationFactor(f24 int, f7avg, f30avg float64) domain.RiskFactor {
	if f7avg == 0 && f30avg == 0 {
		return domain.RiskFactor{Name: "frequency-deviation", Detail: "no historical window"}
	}
	baseline := f7avg
	if f30avg > baseline {
		baseline = f30avg
	}
	if float64(f24) > 3*baseline && f24 >= 4 {
		return domain.RiskFactor{Name: "frequency-deviation", Detected: true, Score: 20, Detail: "transaction count spikes relative to the player's baseline"}
	}
	return domain.RiskFactor{Name: "frequency-deviation", Detail: "within normal frequency"}
}

// rapidDepositWithdrawalFactor implements §4.6.1's rapid deposit-then-
// withdrawal check: the current transaction is a withdrawal and a
// deposit of at least 80% of its magnitude landed on the same wallet
// within the preceding 24 hours.
func rapidDepositWithdrawalFactor(txType domain.TransactionType, amount decimal.Decimal, recentDeposit decimal.Decimal, hasRecentDeposit bool) domain.RiskFactor {
	if txType != domain.TransactionWithdrawal || !hasRecentDeposit {
		return domain.RiskFactor{Name: "rapid-deposit-withdrawal"}
	}
	threshold := amount.Mul(decimal.NewFromFloat(0.8))
	if recentDeposit.GreaterThanOrEqual(threshold) {
		return domain.RiskFactor{
			Name:     "rapid-deposit-withdrawal",
			Detected: true,
			Score:    25,
			Detail:   "withdrawal closely follows a comparable deposit within 24h",
		}
	}
	return domain.RiskFactor{Name: "rapid-deposit-withdrawal"}
}

// compositeBonus implements §4.6.1's composite bonus: when two or more
// factors fire together, add extra score proportional to how many and
// how severe, capped at +40.
func compositeBonus(factors []domain.RiskFactor) float64 {
	fired := 0
	sum := 0.0
	for _, f := range factors {
		if f.Detected {
			fired++
			sum += f.Score
		}
	}
	if fired < 2 {
		return 0
	}
	bonus := sum * 0.2 * float64(fired-1)
	return math.Min(40, bonus)
}
