// Package indicator implements the technical indicators used by the trading
// strategies: SMA, EMA, RSI and MACD. All functions return a slice aligned
// with the input, with NaN for positions inside the warm-up window.
package indicator

import "math"

// SMA computes the simple moving average over the given period
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average with span smoothing,
// alpha = 2/(period+1), seeded with the first value.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) == 0 {
		return out
	}

	alpha := 2.0 / (float64(period) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI computes the relative strength index with Wilder smoothing
// (alpha = 1/period). When the average loss is zero RSI is 100.
func RSI(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	w := float64(period)
	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(w-1) + gain) / w
		avgLoss = (avgLoss*(w-1) + loss) / w
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD computes the MACD line (fast EMA - slow EMA), its signal line and
// the histogram (macd - signal).
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) (macd, signal, histogram []float64) {
	fast := EMA(values, fastPeriod)
	slow := EMA(values, slowPeriod)

	macd = make([]float64, len(values))
	for i := range values {
		macd[i] = fast[i] - slow[i]
	}

	signal = EMA(macd, signalPeriod)

	histogram = make([]float64, len(values))
	for i := range values {
		histogram[i] = macd[i] - signal[i]
	}
	return macd, signal, histogram
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
