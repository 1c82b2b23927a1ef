package util

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AMOUNT_SCALE matches the NUMERIC(24,8) amount columns.
const AMOUNT_SCALE = 8

var printer = message.NewPrinter(language.English)

func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(AMOUNT_SCALE)
}

// FormatAmount renders an amount with thousands separators and two decimals.
func FormatAmount(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return printer.Sprintf("%.2f", f)
}

// FormatUsdt is FormatAmount with the currency suffix used in bot texts.
func FormatUsdt(amount decimal.Decimal) string {
	return FormatAmount(amount) + " USDT"
}

// Percent returns amount * rate / 100 at amount scale.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return RoundAmount(amount.Mul(rate).Div(decimal.NewFromInt(100)))
}

// Plural picks the English noun form for n.
func Plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
