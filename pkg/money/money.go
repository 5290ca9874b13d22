// Package money provides a currency-aware fixed-point amount type used
// throughout the wallet engine. Amounts are represented as
// decimal.Decimal, never as floats, and every arithmetic operation
// enforces that both operands share the same currency.
package money

import (
	"errors"
	"fmt"

	"github.com/amirasaad/gamewallet/pkg/currency"
	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyMismatch is returned when combining two Money values
	// whose currencies differ.
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	// ErrInvalidScale is returned when an amount carries more fractional
	// digits than its currency allows.
	ErrInvalidScale = errors.New("money: amount exceeds currency scale")
	// ErrNegativeAmount is returned when an operation amount is zero or
	// negative; operation amounts must always be strictly positive.
	ErrNegativeAmount = errors.New("money: amount must be positive")
)

// Money is an immutable amount denominated in a specific currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New validates amount against currency's decimal scale and returns a
// Money value. amount must be strictly positive; use Zero for balances
// that start empty.
func New(amount decimal.Decimal, currencyCode string) (Money, error) {
	meta, err := currency.Get(currencyCode)
	if err != nil {
		return Money{}, err
	}
	if amount.Sign() <= 0 {
		return Money{}, ErrNegativeAmount
	}
	if amount.Exponent() < -meta.Decimals {
		return Money{}, fmt.Errorf("%w: %s allows %d decimals", ErrInvalidScale, meta.Code, meta.Decimals)
	}
	return Money{amount: amount, currency: meta.Code}, nil
}

// Zero returns the zero balance for currencyCode.
func Zero(currencyCode string) (Money, error) {
	meta, err := currency.Get(currencyCode)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: decimal.Zero, currency: meta.Code}, nil
}

// Balance wraps a stored wallet balance as Money so it can be combined
// with operation amounts via Add/Sub/LessThan. Unlike New, it accepts
// zero and negative amounts: a balance starts at zero, and Sub may need
// to represent a would-be-negative candidate for a caller to reject.
func Balance(amount decimal.Decimal, currencyCode string) (Money, error) {
	meta, err := currency.Get(currencyCode)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: meta.Code}, nil
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	return nil
}

// Add returns m+o. Both must share a currency.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(o.amount), currency: m.currency}, nil
}

// Sub returns m-o. Both must share a currency. The result may be
// negative; callers decide whether that represents an overdraft.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(o.amount), currency: m.currency}, nil
}

// LessThan reports whether m < o, both must share a currency.
func (m Money) LessThan(o Money) (bool, error) {
	if err := m.sameCurrency(o); err != nil {
		return false, err
	}
	return m.amount.LessThan(o.amount), nil
}

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) String() string {
	meta, err := currency.Get(m.currency)
	if err != nil {
		return m.amount.String() + " " + m.currency
	}
	return m.amount.StringFixed(meta.Decimals) + " " + m.currency
}
