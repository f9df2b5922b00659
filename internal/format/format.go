// Package format renders monetary amounts and dates the way the billing
// emails present them to Brazilian customers.
package format

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Amount formats an amount stored as cents as a pt-BR currency string,
// e.g. 250000 -> "R$ 2.500,00".
func Amount(cents int64) string {
	return printer.Sprintf("R$ %v", number.Decimal(float64(cents)/100.0,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// Date formats a calendar date as pt-BR day/month/year.
func Date(t time.Time) string {
	return t.Format("02/01/2006")
}
