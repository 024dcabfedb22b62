package service

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RoundingPrecision is the multiplier used by round (two decimal places).
const RoundingPrecision = 100

// round rounds a float64 value to two decimal places using the package RoundingPrecision constant.
//
// Example:
//
//	round(123.456789)  // returns 123.46
//	round(1.994)       // returns 1.99
func round(value float64) float64 {
	return math.Round(value*RoundingPrecision) / RoundingPrecision
}

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders a value as US dollars with thousands separators.
//
// Example:
//
//	FormatCurrency(1234.5)   // returns "$1,234.50"
//	FormatCurrency(-12)      // returns "$-12.00"
//
// The sign follows the dollar sign, as in the reports this output replaces.
func FormatCurrency(value float64) string {
	return "$" + currencyPrinter.Sprintf("%.2f", round(value))
}
