package checkout

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mcoot/relayview/internal/model"
)

// Pricings holds donation limits per ISO currency code
type Pricings map[string]model.Pricing

// DefaultPricings returns the limits for the supported currencies
func DefaultPricings() Pricings {
	return Pricings{
		"USD": {Currency: "USD", Default: 5, Min: 1, Max: 10000, Lifetime: 250, GiftMin: 2},
		"EUR": {Currency: "EUR", Default: 5, Min: 1, Max: 10000, Lifetime: 250, GiftMin: 2},
		"GBP": {Currency: "GBP", Default: 5, Min: 1, Max: 10000, Lifetime: 220, GiftMin: 2},
		"CAD": {Currency: "CAD", Default: 7, Min: 1, Max: 13000, Lifetime: 330, GiftMin: 3},
		"AUD": {Currency: "AUD", Default: 8, Min: 1, Max: 15000, Lifetime: 370, GiftMin: 3},
		"INR": {Currency: "INR", Default: 400, Min: 80, Max: 800000, Lifetime: 20000, GiftMin: 160},
	}
}

// Only keeps the given currency codes. Unknown codes are an error.
func (p Pricings) Only(codes []string) (Pricings, error) {
	if len(codes) == 0 {
		return p, nil
	}
	out := make(Pricings, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		pricing, ok := p[code]
		if !ok {
			return nil, fmt.Errorf("no pricing for currency %q", code)
		}
		out[code] = pricing
	}
	return out, nil
}

// Currencies returns the supported currency codes, sorted
func (p Pricings) Currencies() []string {
	codes := make([]string, 0, len(p))
	for code := range p {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Get returns the pricing of a currency. Codes must be valid ISO 4217.
func (p Pricings) Get(code string) (model.Pricing, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return model.Pricing{}, fmt.Errorf("%w: %q is not an ISO code", model.ErrUnsupportedCurrency, code)
	}
	pricing, ok := p[unit.String()]
	if !ok {
		return model.Pricing{}, fmt.Errorf("%w: %s", model.ErrUnsupportedCurrency, unit)
	}
	return pricing, nil
}

// FormatAmount renders an amount the way limit messages show it: "USD 2.5"
func FormatAmount(cur string, amount float64) string {
	return cur + " " + strconv.FormatFloat(amount, 'f', -1, 64)
}

// LocalizedAmount renders an amount with the currency symbol for a locale
func LocalizedAmount(tag language.Tag, cur string, amount float64) string {
	unit, err := currency.ParseISO(cur)
	if err != nil {
		return FormatAmount(cur, amount)
	}
	return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(amount)))
}
