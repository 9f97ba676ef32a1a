package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var countPrinter = message.NewPrinter(language.English)

// FormatPrice renders an amount in minor units.
//
//	FormatPrice(340900, "EUR") == "€ 3409,00"
//	FormatPrice(340900, "USD") == "$ 3409.00"
//	FormatPrice(340900, "GBP") == "GBP 3409.00"
func FormatPrice(cents int64, currency string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	code := strings.ToUpper(strings.TrimSpace(currency))

	switch stripe.Currency(strings.ToLower(code)) {
	case stripe.CurrencyEUR:
		return "€ " + strings.Replace(amount, ".", ",", 1)
	case stripe.CurrencyUSD:
		return "$ " + amount
	}
	if code == "" {
		return amount
	}
	return code + " " + amount
}

// FormatCount groups thousands: 1234567 -> "1,234,567".
func FormatCount(n int64) string {
	return countPrinter.Sprintf("%d", n)
}

// ToMinorUnits converts user input in major units ("12.50", "12,5", "3")
// into minor units. ok is false for anything that is not a plain number.
func ToMinorUnits(input string) (cents int64, ok bool) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return 0, false
	}
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	return d.Shift(2).Round(0).IntPart(), true
}

// ParseCount reads an integer count filter bound, accepting grouped input.
func ParseCount(input string) (int64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(input), ",", "")
	if raw == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	return d.Floor().IntPart(), true
}
