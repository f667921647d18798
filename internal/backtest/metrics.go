package backtest

import (
	"math"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/util"
)

// candlesPerYear annualizes the Sharpe ratio assuming daily candles
const candlesPerYear = 252

// maxProfitFactor caps the profit factor when there are no losing trades.
// JSON cannot carry +Inf, so a run with profit and zero losses reports
// this sentinel instead.
const maxProfitFactor = 9999.99

// CalculateMetrics derives the performance metrics of a simulation from
// its trades and equity curve
func CalculateMetrics(trades []model.Trade, equity []model.EquityPoint, initialCapital float64) model.BacktestMetrics {
	m := model.BacktestMetrics{TotalTrades: len(trades)}
	if len(equity) == 0 {
		return m
	}

	finalEquity := equity[len(equity)-1].Equity
	if len(trades) > 0 && initialCapital > 0 {
		m.TotalPnL = util.RoundToPrecision(finalEquity-initialCapital, 4)
		m.TotalPnLPct = util.RoundToPrecision((finalEquity-initialCapital)/initialCapital*100, 2)
	}

	m.WinRatePct = winRate(trades)
	m.TotalProfit, m.TotalLoss = grossProfitLoss(trades)
	m.ProfitFactor = profitFactor(m.TotalProfit, m.TotalLoss)
	m.AvgTradePnL = avgTradePnL(trades)
	m.MaxDrawdown, m.MaxDrawdownPct = maxDrawdown(equity)
	m.SharpeRatio = sharpeRatio(equity)
	return m
}

func winRate(trades []model.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	winning := 0
	for _, t := range trades {
		if t.PnL != nil && *t.PnL > 0 {
			winning++
		}
	}
	return util.RoundToPrecision(float64(winning)/float64(len(trades))*100, 2)
}

func grossProfitLoss(trades []model.Trade) (profit, loss float64) {
	for _, t := range trades {
		if t.PnL == nil {
			continue
		}
		if *t.PnL > 0 {
			profit += *t.PnL
		} else {
			loss += -*t.PnL
		}
	}
	return util.RoundToPrecision(profit, 4), util.RoundToPrecision(loss, 4)
}

func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit == 0 {
			return 0
		}
		return maxProfitFactor
	}
	return util.RoundToPrecision(grossProfit/grossLoss, 2)
}

func avgTradePnL(trades []model.Trade) float64 {
	sum, n := 0.0, 0
	for _, t := range trades {
		if t.PnL != nil {
			sum += *t.PnL
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return util.RoundToPrecision(sum/float64(n), 4)
}

func maxDrawdown(equity []model.EquityPoint) (abs, pct float64) {
	if len(equity) < 2 {
		return 0, 0
	}
	peak := equity[0].Equity
	for _, p := range equity[1:] {
		if p.Equity > peak {
			peak = p.Equity
			continue
		}
		dd := peak - p.Equity
		if dd > abs {
			abs = dd
			if peak > 0 {
				pct = dd / peak * 100
			}
		}
	}
	return util.RoundToPrecision(abs, 4), util.RoundToPrecision(pct, 2)
}

// sharpeRatio annualizes the mean over standard deviation of per-candle
// returns. Flat curves and curves with fewer than two points score zero.
func sharpeRatio(equity []model.EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (equity[i].Equity-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	// sample standard deviation
	std := math.Sqrt(variance / float64(len(returns)-1))
	if std == 0 {
		return 0
	}
	return util.RoundToPrecision(mean/std*math.Sqrt(candlesPerYear), 3)
}
