package util

// Trading limits shared across services

const (
	// MinOrderValueQuote is the minimum order value in quote currency (USDT)
	MinOrderValueQuote = 10.0

	// MinInitialCapital is the minimum initial capital for a backtest run
	MinInitialCapital = 100.0

	// MaxKlinesPerRequest is the exchange limit for a single klines request
	MaxKlinesPerRequest = 1000

	// TinyBalanceThreshold is the threshold below which base balances are
	// considered dust and ignored when deciding whether a position is open
	TinyBalanceThreshold = 0.00000001
)
