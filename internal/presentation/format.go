// Package presentation renders internal values for humans. Prices are
// integer cents everywhere else; only this package turns them into text.
package presentation

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Price renders cents as dollars with two decimals, e.g. 123456 -> "$1,234.56".
func Price(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "$" + printer.Sprintf("%d", cents/100) + fmt.Sprintf(".%02d", cents%100)
}

// RoundKm rounds a distance to one decimal place.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

// Distance renders kilometers with one decimal, e.g. 2.04 -> "2.0 km".
func Distance(km float64) string {
	return printer.Sprintf("%.1f km", RoundKm(km))
}

// Quantity renders a nutrient amount with at most one decimal.
func Quantity(v float64) string {
	if v == math.Trunc(v) {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.1f", v)
}
