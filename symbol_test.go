package wstf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSymbolOK(t *testing.T) {
	sym, err := ParseSymbol("BINANCE_BTC_USDT")
	require.NoError(t, err)
	require.Equal(t, Symbol{Exchange: "BINANCE", Currency: "BTC", Asset: "USDT"}, sym)
}

func TestParseSymbolWrongPartCount(t *testing.T) {
	_, err := ParseSymbol("BINANCE_BTC")
	require.ErrorIs(t, err, ErrSymbol)

	_, err = ParseSymbol("BINANCE_BTC_USDT_EXTRA")
	require.ErrorIs(t, err, ErrSymbol)
}

func TestAssetTypeString(t *testing.T) {
	require.Equal(t, "spot", AssetTypeSpot.String())
}
