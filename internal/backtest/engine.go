// Package backtest simulates bot strategies over historical candles and
// derives performance metrics from the resulting trades and equity curve.
package backtest

import (
	"botdeck/backend/internal/model"
	"botdeck/backend/internal/strategy"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/binance"
)

// Params are the inputs of a single simulation run
type Params struct {
	Config         *model.BotConfig
	Klines         []binance.Kline
	InitialCapital float64
	CommissionPct  float64 // percent per fill, 0 disables commission
}

// Result holds the raw simulation output before persistence
type Result struct {
	Metrics     model.BacktestMetrics
	Trades      []model.Trade
	EquityCurve []model.EquityPoint
}

// Run simulates the configured strategy candle by candle. The position is
// tracked against a running average entry price; each SELL realizes
// PnL = (price - avgEntry) * quantity. Any position left at the end of the
// data is marked to market as a CLOSE trade.
func Run(p Params) (*Result, error) {
	if p.Config == nil {
		return nil, util.ErrBadRequest("Bot configuration is required")
	}
	if len(p.Klines) == 0 {
		return &Result{Metrics: CalculateMetrics(nil, nil, p.InitialCapital)}, nil
	}
	if err := strategy.ValidateSettings(p.Config); err != nil {
		return nil, err
	}

	sim := &simulation{
		balance:       p.InitialCapital,
		commissionPct: p.CommissionPct,
	}
	sim.addEquity(p.Klines[0].OpenTime, p.InitialCapital)

	switch p.Config.BotType {
	case model.BotTypeMomentum:
		sim.runMomentum(p.Config, p.Klines)
	case model.BotTypeGrid:
		sim.runGrid(p.Config, p.Klines)
	case model.BotTypeDCA:
		sim.runDCA(p.Config, p.Klines)
	}

	last := p.Klines[len(p.Klines)-1]
	sim.closeOut(last.OpenTime, last.Close)

	return &Result{
		Metrics:     CalculateMetrics(sim.trades, sim.equity, p.InitialCapital),
		Trades:      sim.trades,
		EquityCurve: sim.equity,
	}, nil
}

type simulation struct {
	balance       float64
	position      float64
	avgEntry      float64
	commissionPct float64

	trades []model.Trade
	equity []model.EquityPoint
}

func (s *simulation) runMomentum(cfg *model.BotConfig, klines []binance.Kline) {
	m := strategy.NewMomentum(cfg)
	tradeAmount := cfg.SettingFloat("trade_amount_quote", 0)

	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
	}
	m.Prepare(closes)

	warmup := m.WarmupPeriod()
	for i, k := range klines {
		if i >= warmup {
			switch m.Evaluate(i, s.position > util.TinyBalanceThreshold) {
			case strategy.SignalBuy:
				s.buy(k.OpenTime, k.Close, tradeAmount/k.Close)
			case strategy.SignalSell:
				s.sell(k.OpenTime, k.Close, s.position)
			}
		}
		s.addEquity(k.OpenTime, s.balance+s.position*k.Close)
	}
}

func (s *simulation) runGrid(cfg *model.BotConfig, klines []binance.Kline) {
	g := strategy.NewGrid(cfg)
	g.Prime(klines[0].Close)
	// quantity per grid order, fixed at the first observed price
	gridQty := g.OrderQuantity(klines[0].Close)

	for _, k := range klines {
		signal, level := g.Evaluate(k.Close)
		switch signal {
		case strategy.SignalBuy:
			if !s.buy(k.OpenTime, k.Close, gridQty) {
				g.ResetLevel(level)
			}
		case strategy.SignalSell:
			s.sell(k.OpenTime, k.Close, gridQty)
		}
		s.addEquity(k.OpenTime, s.balance+s.position*k.Close)
	}
}

func (s *simulation) runDCA(cfg *model.BotConfig, klines []binance.Kline) {
	d := strategy.NewDCA(cfg)
	d.Prime(klines[0].OpenTime)

	for _, k := range klines {
		if d.Evaluate(k.OpenTime, s.balance) == strategy.SignalBuy {
			if !s.buy(k.OpenTime, k.Close, d.OrderAmountQuote/k.Close) {
				d.ResetSchedule()
			}
		}
		s.addEquity(k.OpenTime, s.balance+s.position*k.Close)
	}
}

func (s *simulation) buy(ts int64, price, quantity float64) bool {
	if quantity <= 0 || price <= 0 {
		return false
	}
	cost := quantity * price
	commission := cost * s.commissionPct / 100
	if s.balance < cost+commission {
		return false
	}

	if s.position+quantity > util.TinyBalanceThreshold {
		totalCost := s.avgEntry*s.position + cost
		s.avgEntry = totalCost / (s.position + quantity)
	} else {
		s.avgEntry = price
	}
	s.balance -= cost + commission
	s.position += quantity

	s.trades = append(s.trades, model.Trade{
		EntryTimestamp: ts,
		EntryPrice:     price,
		Quantity:       quantity,
		Side:           model.SideBuy,
	})
	return true
}

func (s *simulation) sell(ts int64, price, quantity float64) {
	if s.position <= 0 || quantity <= 0 {
		return
	}
	if quantity > s.position {
		quantity = s.position
	}
	proceeds := quantity * price
	commission := proceeds * s.commissionPct / 100
	pnl := (price-s.avgEntry)*quantity - commission

	s.balance += proceeds - commission
	s.position -= quantity

	exitTS, exitPrice := ts, price
	s.trades = append(s.trades, model.Trade{
		EntryTimestamp: ts,
		ExitTimestamp:  &exitTS,
		EntryPrice:     price,
		ExitPrice:      &exitPrice,
		Quantity:       quantity,
		PnL:            &pnl,
		Side:           model.SideSell,
	})

	if s.position < util.TinyBalanceThreshold {
		s.position = 0
		s.avgEntry = 0
	}
}

// closeOut marks any remaining position to market at the final price
func (s *simulation) closeOut(ts int64, price float64) {
	if s.position <= util.TinyBalanceThreshold {
		return
	}
	pnl := (price - s.avgEntry) * s.position
	exitTS, exitPrice := ts, price

	s.trades = append(s.trades, model.Trade{
		EntryTimestamp: ts,
		ExitTimestamp:  &exitTS,
		EntryPrice:     s.avgEntry,
		ExitPrice:      &exitPrice,
		Quantity:       s.position,
		PnL:            &pnl,
		Side:           model.SideClose,
	})

	s.balance += s.position * price
	s.position = 0
	s.avgEntry = 0
}

// addEquity records an equity point, collapsing duplicate timestamps to
// the latest value so the curve stays strictly increasing in time
func (s *simulation) addEquity(ts int64, equity float64) {
	if n := len(s.equity); n > 0 && s.equity[n-1].Timestamp == ts {
		s.equity[n-1].Equity = equity
		return
	}
	s.equity = append(s.equity, model.EquityPoint{Timestamp: ts, Equity: equity})
}
