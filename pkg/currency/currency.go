// Package currency holds the static table of currencies this platform
// accepts, each with its decimal scale and AML large-value threshold.
package currency

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnsupported is returned for a currency code absent from the table.
var ErrUnsupported = errors.New("currency: unsupported code")

// Meta describes a single currency: how many fractional digits an amount
// may carry and the amount at or above which a transaction is flagged as
// large-value for AML purposes (§4.6.1).
type Meta struct {
	Code             string
	Decimals         int32
	Symbol           string
	LargeValueThresh decimal.Decimal
}

var table = map[string]Meta{
	"USD": {Code: "USD", Decimals: 2, Symbol: "$", LargeValueThresh: decimal.NewFromInt(10000)},
	"EUR": {Code: "EUR", Decimals: 2, Symbol: "€", LargeValueThresh: decimal.NewFromInt(10000)},
	"GBP": {Code: "GBP", Decimals: 2, Symbol: "£", LargeValueThresh: decimal.NewFromInt(8000)},
	"JPY": {Code: "JPY", Decimals: 0, Symbol: "¥", LargeValueThresh: decimal.NewFromInt(1000000)},
	"KWD": {Code: "KWD", Decimals: 3, Symbol: "د.ك", LargeValueThresh: decimal.NewFromInt(3000)},
	"BHD": {Code: "BHD", Decimals: 3, Symbol: ".د.ب", LargeValueThresh: decimal.NewFromInt(3800)},
	"CAD": {Code: "CAD", Decimals: 2, Symbol: "C$", LargeValueThresh: decimal.NewFromInt(14000)},
	"AUD": {Code: "AUD", Decimals: 2, Symbol: "A$", LargeValueThresh: decimal.NewFromInt(15000)},
	"CHF": {Code: "CHF", Decimals: 2, Symbol: "CHF", LargeValueThresh: decimal.NewFromInt(9000)},
	"CNY": {Code: "CNY", Decimals: 2, Symbol: "¥", LargeValueThresh: decimal.NewFromInt(70000)},
	"INR": {Code: "INR", Decimals: 4, Symbol: "₹", LargeValueThresh: decimal.NewFromInt(800000)},
}

// Get returns the metadata for code, normalizing case.
func Get(code string) (Meta, error) {
	m, ok := table[strings.ToUpper(code)]
	if !ok {
		return Meta{}, ErrUnsupported
	}
	return m, nil
}

// IsSupported reports whether code is a registered currency.
func IsSupported(code string) bool {
	_, ok := table[strings.ToUpper(code)]
	return ok
}
