package browser

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money renders prices as localized currency text.
type Money struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewMoney creates a Money formatter for a BCP 47 locale and an ISO 4217 currency code.
func NewMoney(locale, code string) (*Money, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("browser: invalid locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("browser: invalid currency %q: %w", code, err)
	}
	return &Money{printer: message.NewPrinter(tag), unit: unit}, nil
}

// Format renders amount with the currency symbol.
func (m *Money) Format(amount decimal.Decimal) string {
	return m.printer.Sprint(currency.Symbol(m.unit.Amount(amount.InexactFloat64())))
}
