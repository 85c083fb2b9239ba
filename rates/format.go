package rates

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Symbol returns the display symbol for a currency code, or the code itself.
func Symbol(code string) string {
	switch NormalizeCode(code) {
	case "INR":
		return "₹"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	default:
		return NormalizeCode(code)
	}
}

// FormatNumber renders an amount with two decimals and thousands grouping.
func FormatNumber(amount decimal.Decimal) string {
	return printer.Sprintf("%.2f", amount.Round(2).InexactFloat64())
}

// Format renders an amount already expressed in code, prefixed by its symbol.
func Format(amount decimal.Decimal, code string) string {
	return Symbol(code) + FormatNumber(amount)
}
