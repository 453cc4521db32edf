package domain

import (
	"fmt"
	"strings"
)

// AssetClass distinguishes the two independently scheduled trading universes.
type AssetClass string

const (
	AssetStock  AssetClass = "stock"
	AssetCrypto AssetClass = "crypto"
)

// TradingMode selects the symbol universes for both asset classes.
type TradingMode string

const (
	ModeConservative TradingMode = "conservative"
	ModeVolatile     TradingMode = "volatile"
	ModeHybrid       TradingMode = "hybrid"
)

// Valid reports whether m is one of the known trading modes.
func (m TradingMode) Valid() bool {
	switch m {
	case ModeConservative, ModeVolatile, ModeHybrid:
		return true
	}
	return false
}

// ParseTradingMode parses a mode name case-insensitively.
func ParseTradingMode(s string) (TradingMode, error) {
	m := TradingMode(strings.ToLower(s))
	if !m.Valid() {
		return "", fmt.Errorf("unknown trading mode %q: %w", s, ErrNotFound)
	}
	return m, nil
}

// Stocks returns the stock universe for the mode.
func (m TradingMode) Stocks() []string {
	switch m {
	case ModeConservative:
		return []string{
			"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN",
			"NVDA", "META", "NFLX", "AMD", "INTC",
			"PYPL", "ADBE", "CRM", "ORCL", "QCOM",
			"TXN", "AVGO", "CSCO", "ASML", "AMAT",
		}
	case ModeVolatile:
		return []string{
			"TSLA", "GME", "PLTR", "RIOT",
			"MARA", "MSTR", "COIN", "ROKU", "SNAP",
			"SQ", "SHOP", "ARKK", "UPST", "CRWD",
			"ZM", "UBER", "LYFT", "DKNG", "HOOD", "SOFI",
		}
	default:
		return []string{
			"AAPL", "GOOGL", "MSFT", "AMZN", "META",
			"NFLX", "ADBE", "CRM", "ORCL", "CSCO",
			"TSLA", "GME", "PLTR", "RIOT", "COIN",
			"MSTR", "SNAP", "ROKU", "MARA", "ARKK",
		}
	}
}

// Crypto returns the crypto universe for the mode. Pairs use the broker's
// slash notation, e.g. "BTC/USD".
func (m TradingMode) Crypto() []string {
	switch m {
	case ModeConservative:
		return []string{"BTC/USD", "ETH/USD", "XRP/USD"}
	case ModeVolatile:
		return []string{
			"BTC/USD", "ETH/USD", "SOL/USD",
			"DOGE/USD", "AVAX/USD", "MATIC/USD",
		}
	default:
		return []string{
			"BTC/USD", "ETH/USD", "SOL/USD",
			"DOGE/USD", "AVAX/USD",
		}
	}
}

// Universe returns the symbol list for the given mode and asset class.
func Universe(m TradingMode, class AssetClass) []string {
	if class == AssetCrypto {
		return m.Crypto()
	}
	return m.Stocks()
}
