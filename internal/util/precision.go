package util

import (
	"fmt"
	"strconv"
	"strings"
)

// PrecisionFromStepSize derives the decimal precision from an exchange step
// size string, e.g. "0.00100000" -> 3, "1.00000000" -> 0.
func PrecisionFromStepSize(stepSize string) int {
	step, err := strconv.ParseFloat(stepSize, 64)
	if err != nil || step <= 0 {
		return 8
	}
	if step >= 1 {
		return 0
	}

	trimmed := strings.TrimRight(stepSize, "0")
	if idx := strings.Index(trimmed, "."); idx >= 0 {
		return len(trimmed) - idx - 1
	}
	return 0
}

// FormatQuantity formats an order quantity to the precision implied by the
// step size, rounding down so the quantity never exceeds available balance.
func FormatQuantity(quantity float64, stepSize string) string {
	precision := PrecisionFromStepSize(stepSize)
	floored := FloorToPrecision(quantity, precision)
	return strconv.FormatFloat(floored, 'f', precision, 64)
}

// FormatPrice formats a price to the precision implied by the tick size
func FormatPrice(price float64, tickSize string) string {
	precision := PrecisionFromStepSize(tickSize)
	return fmt.Sprintf("%.*f", precision, RoundToPrecision(price, precision))
}
