package aml

import (
	"testing"
	"time"

	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestLargeValueFactor_FiresAtThreshold(t *testing.T) {
	below := largeValueFactor(d("9999.99"), "USD")
	require.False(t, below.Detected)

	atThreshold := largeValueFactor(d("10000"), "USD")
	require.True(t, atThreshold.Detected)
	require.Equal(t, 40.0, atThreshold.Score)

	above := largeValueFactor(d("15000"), "USD")
	require.True(t, above.Detected)
}

func TestLargeValueFactor_PerCurrencyThreshold(t *testing.T) {
	jpy := largeValueFactor(d("1000000"), "JPY")
	require.True(t, jpy.Detected)

	jpyBelow := largeValueFactor(d("999999"), "JPY")
	require.False(t, jpyBelow.Detected)
}

func TestAmountDeviationFactor_InsufficientHistoryAbstains(t *testing.T) {
	f := amountDeviationFactor(d("1000"), []decimal.Decimal{d("10"), d("12")})
	require.False(t, f.Detected)
}

func TestAmountDeviationFactor_DetectsOutlier(t *testing.T) {
	history := []decimal.Decimal{d("10"), d("12"), d("11"), d("9"), d("10.5"), d("11.5")}
	f := amountDeviationFactor(d("500"), history)
	require.True(t, f.Detected)
	require.Greater(t, f.Score, 0.0)
	require.LessOrEqual(t, f.Score, 25.0)
}

func TestAmountDeviationFactor_NormalAmountDoesNotFire(t *testing.T) {
	history := []decimal.Decimal{d("10"), d("12"), d("11"), d("9"), d("10.5"), d("11.5")}
	f := amountDeviationFactor(d("10.8"), history)
	require.False(t, f.Detected)
}

func TestTimePatternFactor_InsufficientHistoryAbstains(t *testing.T) {
	f := timePatternFactor(time.Now(), []time.Time{time.Now()})
	require.False(t, f.Detected)
}

func TestTimePatternFactor_DetectsLowActivityBin(t *testing.T) {
	base := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC) // Monday 14:00
	var history []time.Time
	for i := 0; i < 20; i++ {
		history = append(history, base.AddDate(0, 0, -7*i))
	}
	// every historical transaction lands in the same hour/weekday bin;
	// a transaction at a completely different hour should be flagged.
	odd := base.Add(11 * time.Hour) // Tuesday 01:00: different hour and weekday
	f := timePatternFactor(odd, history)
	require.True(t, f.Detected)
	require.Equal(t, 15.0, f.Score)
}

func TestFrequencyDeviationFactor_AbstainsWithoutHistory(t *testing.T) {
	f := frequencyDeviationFactor(5, 0, 0)
	require.False(t, f.Detected)
}

func TestFrequencyDeviationFactor_CanonicalRule(t *testing.T) {
	// f24 > 3*max(f7,f30) and f24 >= 4
	require.True(t, frequencyDeviationFactor(4, 1.0, 0.5).Detected)
	require.False(t, frequencyDeviationFactor(3, 0.5, 0.5).Detected, "f24 below 4 must never fire regardless of ratio")
	require.False(t, frequencyDeviationFactor(4, 2.0, 0.5).Detected, "f24 not exceeding 3x baseline must not fire")
}

func TestRapidDepositWithdrawalFactor(t *testing.T) {
	notWithdrawal := rapidDepositWithdrawalFactor("deposit", d("100"), d("100"), true)
	require.False(t, notWithdrawal.Detected)

	noRecentDeposit := rapidDepositWithdrawalFactor("withdrawal", d("100"), d("0"), false)
	require.False(t, noRecentDeposit.Detected)

	comparable := rapidDepositWithdrawalFactor("withdrawal", d("100"), d("85"), true)
	require.True(t, comparable.Detected)

	tooSmall := rapidDepositWithdrawalFactor("withdrawal", d("100"), d("50"), true)
	require.False(t, tooSmall.Detected)
}

func TestCompositeBonus_RequiresTwoFactors(t *testing.T) {
	one := []domain.RiskFactor{{Name: "a", Detected: true, Score: 40}}
	require.Equal(t, 0.0, compositeBonus(one))

	two := []domain.RiskFactor{{Name: "a", Detected: true, Score: 40}, {Name: "b", Detected: true, Score: 25}}
	bonus := compositeBonus(two)
	require.Greater(t, bonus, 0.0)
	require.LessOrEqual(t, bonus, 40.0)
}
