package strategy

import (
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/util"
)

// DCA buys a fixed quote amount on a fixed schedule. The backtest engine
// drives it with candle timestamps; the live runtime drives it with wall
// clock time.
type DCA struct {
	OrderAmountQuote   float64
	BuyIntervalSeconds int64

	lastBuyMillis int64
	prevBuyMillis int64
}

// NewDCA builds a DCA strategy from a bot configuration. The interval can
// be given as buy_interval_seconds or, matching older configs, as
// purchase_frequency_hours.
func NewDCA(cfg *model.BotConfig) *DCA {
	interval := int64(cfg.SettingInt("buy_interval_seconds", 0))
	if interval == 0 {
		interval = int64(cfg.SettingInt("purchase_frequency_hours", 0)) * 3600
	}
	amount := cfg.SettingFloat("order_amount_quote", 0)
	if amount == 0 {
		amount = cfg.SettingFloat("purchase_amount", 0)
	}
	return &DCA{
		OrderAmountQuote:   amount,
		BuyIntervalSeconds: interval,
	}
}

// Prime seats the schedule so that the first evaluated candle is eligible
// to buy, matching a bot that purchases immediately on start.
func (d *DCA) Prime(timestampMillis int64) {
	d.lastBuyMillis = timestampMillis - d.BuyIntervalSeconds*1000
}

// Evaluate returns SignalBuy when the interval since the last purchase has
// elapsed and the quote balance covers the order amount
func (d *DCA) Evaluate(timestampMillis int64, quoteBalance float64) Signal {
	if timestampMillis-d.lastBuyMillis < d.BuyIntervalSeconds*1000 {
		return SignalNone
	}
	if quoteBalance < d.OrderAmountQuote {
		return SignalNone
	}
	d.prevBuyMillis = d.lastBuyMillis
	d.lastBuyMillis = timestampMillis
	return SignalBuy
}

// ResetSchedule undoes the advance made by the last Evaluate buy signal.
// Callers use it when the order could not be filled, so the purchase is
// retried on the next candle instead of waiting out a full interval.
func (d *DCA) ResetSchedule() {
	d.lastBuyMillis = d.prevBuyMillis
}

// MarkPurchased records a completed purchase at t, advancing the schedule
func (d *DCA) MarkPurchased(t time.Time) {
	d.lastBuyMillis = t.UnixMilli()
}

// NextPurchase returns the next scheduled purchase time. A schedule that
// fell behind while the bot was stopped skips the missed intervals instead
// of firing rapid catch-up buys.
func (d *DCA) NextPurchase(now time.Time) time.Time {
	interval := time.Duration(d.BuyIntervalSeconds) * time.Second
	next := time.UnixMilli(d.lastBuyMillis).Add(interval)
	if next.Before(now) {
		missed := now.Sub(next) / interval
		next = next.Add((missed + 1) * interval)
	}
	return next
}

func validateDCASettings(cfg *model.BotConfig) error {
	d := NewDCA(cfg)
	if d.OrderAmountQuote <= 0 {
		return util.ErrValidation("order_amount_quote must be positive")
	}
	if d.OrderAmountQuote < util.MinOrderValueQuote {
		return util.ErrValidation("order_amount_quote is below the exchange minimum")
	}
	if d.BuyIntervalSeconds <= 0 {
		return util.ErrValidation("buy_interval_seconds must be positive")
	}
	return nil
}
