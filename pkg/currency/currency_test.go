package currency

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet_KnownCurrencyIsCaseInsensitive(t *testing.T) {
	upper, err := Get("USD")
	require.NoError(t, err)

	lower, err := Get("usd")
	require.NoError(t, err)

	require.Equal(t, upper, lower)
	require.Equal(t, int32(2), upper.Decimals)
}

func TestGet_UnsupportedCurrency(t *testing.T) {
	_, err := Get("ZZZ")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestGet_JPYHasZeroDecimals(t *testing.T) {
	meta, err := Get("JPY")
	require.NoError(t, err)
	require.Equal(t, int32(0), meta.Decimals)
}

func TestGet_ThreeDecimalCurrency(t *testing.T) {
	meta, err := Get("KWD")
	require.NoError(t, err)
	require.Equal(t, int32(3), meta.Decimals)
}

func TestIsSupported(t *testing.T) {
	require.True(t, IsSupported("eur"))
	require.False(t, IsSupported("zzz"))
}
