package strategy

import (
	"math"
	"sort"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/util"
)

// Grid mode values for the grid_mode setting
const (
	GridModeArithmetic = "arithmetic"
	GridModeGeometric  = "geometric"
)

// Grid places evenly spaced levels between a lower and upper price and
// trades crossings: a candle closing down through an unbought level buys,
// a candle closing up through a level sells back the quantity of the
// highest bought level below it. At most one trade fires per candle.
type Grid struct {
	LowerPrice      float64
	UpperPrice      float64
	NumGrids        int
	Mode            string
	InvestmentQuote float64

	levels []float64
	bought map[float64]bool
	// close of the previous candle, used to detect level crossings
	lastPrice float64
	primed    bool
}

// NewGrid builds a grid strategy from a bot configuration
func NewGrid(cfg *model.BotConfig) *Grid {
	g := &Grid{
		LowerPrice:      cfg.SettingFloat("lower_price", 0),
		UpperPrice:      cfg.SettingFloat("upper_price", 0),
		NumGrids:        cfg.SettingInt("num_grids", 0),
		Mode:            cfg.SettingString("grid_mode", GridModeArithmetic),
		InvestmentQuote: cfg.SettingFloat("investment_quote", 0),
	}
	g.levels = GridLevels(g.LowerPrice, g.UpperPrice, g.NumGrids, g.Mode)
	g.bought = make(map[float64]bool, len(g.levels))
	return g
}

// GridLevels computes the grid price levels including both bounds.
// Arithmetic mode spaces levels evenly; geometric mode applies a constant
// ratio so each step is the same percentage move. A single grid collapses
// to the midpoint of the range.
func GridLevels(lower, upper float64, numGrids int, mode string) []float64 {
	if numGrids <= 0 || lower <= 0 || upper <= lower {
		return nil
	}
	if numGrids == 1 {
		return []float64{(lower + upper) / 2}
	}

	levels := make([]float64, numGrids+1)
	if mode == GridModeGeometric {
		ratio := math.Pow(upper/lower, 1/float64(numGrids))
		levels[0] = lower
		for i := 1; i <= numGrids; i++ {
			levels[i] = levels[i-1] * ratio
		}
		// counteract accumulated float error on the top bound
		levels[numGrids] = upper
	} else {
		step := (upper - lower) / float64(numGrids)
		for i := 0; i <= numGrids; i++ {
			levels[i] = lower + float64(i)*step
		}
	}
	return levels
}

// Levels returns the computed grid levels in ascending order
func (g *Grid) Levels() []float64 {
	return g.levels
}

// OrderQuantity returns the base-asset quantity of a single grid order,
// splitting the investment across the buy levels at the given entry price.
func (g *Grid) OrderQuantity(entryPrice float64) float64 {
	if entryPrice <= 0 || len(g.levels) == 0 {
		return 0
	}
	numBuy := 0
	for _, lvl := range g.levels {
		if lvl < entryPrice {
			numBuy++
		}
	}
	if numBuy == 0 {
		numBuy = 1
	}
	return (g.InvestmentQuote / float64(numBuy)) / entryPrice
}

// Prime sets the reference price without evaluating a signal. Call once
// with the first observed price before feeding candles to Evaluate.
func (g *Grid) Prime(price float64) {
	g.lastPrice = price
	g.primed = true
}

// Evaluate checks the move from the previous price to the current one
// against the grid. It returns the signal and the level that triggered it.
// Buys have priority over sells when a large candle crosses several levels.
func (g *Grid) Evaluate(price float64) (Signal, float64) {
	if !g.primed {
		g.Prime(price)
		return SignalNone, 0
	}
	last := g.lastPrice
	g.lastPrice = price

	for _, level := range g.levels {
		// crossed down through an empty level
		if last > level && level >= price && !g.bought[level] {
			g.bought[level] = true
			return SignalBuy, level
		}
		// crossed up through a level with a bought level beneath it
		if last < level && level <= price && !g.bought[level] {
			if reset, ok := g.highestBoughtBelow(level); ok {
				g.bought[reset] = false
				return SignalSell, level
			}
		}
	}
	return SignalNone, 0
}

// ResetLevel marks a level as empty again. Callers use it to roll back a
// buy signal that could not be filled, keeping the level state consistent
// with the actual position.
func (g *Grid) ResetLevel(level float64) {
	g.bought[level] = false
}

func (g *Grid) highestBoughtBelow(level float64) (float64, bool) {
	candidates := make([]float64, 0, len(g.levels))
	for lvl, isBought := range g.bought {
		if isBought && lvl < level {
			candidates = append(candidates, lvl)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.Float64s(candidates)
	return candidates[len(candidates)-1], true
}

func validateGridSettings(cfg *model.BotConfig) error {
	lower := cfg.SettingFloat("lower_price", 0)
	upper := cfg.SettingFloat("upper_price", 0)
	if lower <= 0 {
		return util.ErrValidation("lower_price must be positive")
	}
	if upper <= lower {
		return util.ErrValidation("upper_price must be above lower_price")
	}
	if cfg.SettingInt("num_grids", 0) < 1 {
		return util.ErrValidation("num_grids must be at least 1")
	}
	mode := cfg.SettingString("grid_mode", GridModeArithmetic)
	if mode != GridModeArithmetic && mode != GridModeGeometric {
		return util.ErrValidation("grid_mode must be arithmetic or geometric")
	}
	if cfg.SettingFloat("investment_quote", 0) <= 0 {
		return util.ErrValidation("investment_quote must be positive")
	}
	return nil
}
