// backend/src/processors/currency_processor.go
package processors

import (
	"math"
	"strings"

	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
)

// currencyAliases maps upper-cased spellings and symbols to canonical codes.
var currencyAliases = map[string]models.CurrencyCode{
	"UZS": models.CurrencyUZS, "SUM": models.CurrencyUZS, "SOM": models.CurrencyUZS,
	"SO'M": models.CurrencyUZS, "SO‘M": models.CurrencyUZS, "СУМ": models.CurrencyUZS, "СЎМ": models.CurrencyUZS,
	"USD": models.CurrencyUSD, "$": models.CurrencyUSD, "US$": models.CurrencyUSD, "DOLLAR": models.CurrencyUSD,
	"EUR": models.CurrencyEUR, "€": models.CurrencyEUR, "EURO": models.CurrencyEUR,
	"GBP": models.CurrencyGBP, "£": models.CurrencyGBP,
	"RUB": models.CurrencyRUB, "RUR": models.CurrencyRUB, "₽": models.CurrencyRUB, "РУБ": models.CurrencyRUB,
	"TRY": models.CurrencyTRY, "TL": models.CurrencyTRY, "₺": models.CurrencyTRY,
	"KZT": models.CurrencyKZT, "₸": models.CurrencyKZT, "TENGE": models.CurrencyKZT,
	"CNY": models.CurrencyCNY, "RMB": models.CurrencyCNY, "YUAN": models.CurrencyCNY,
	"AED": models.CurrencyAED, "DIRHAM": models.CurrencyAED,
	"SAR": models.CurrencySAR, "RIYAL": models.CurrencySAR,
}

type currencyProcessorImpl struct {
	defaultCurrency models.CurrencyCode
}

// NewCurrencyProcessor creates a CurrencyProcessor whose unknown codes fall back to defaultCurrency.
func NewCurrencyProcessor(defaultCurrency string) CurrencyProcessor {
	def, ok := lookupCurrency(defaultCurrency)
	if !ok {
		logger.L.Warn("Unknown default reporting currency, using pivot", "configured", defaultCurrency, "pivot", models.PivotCurrency)
		def = models.PivotCurrency
	}
	return &currencyProcessorImpl{defaultCurrency: def}
}

func lookupCurrency(code string) (models.CurrencyCode, bool) {
	c, ok := currencyAliases[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

func (p *currencyProcessorImpl) DefaultCurrency() models.CurrencyCode {
	return p.defaultCurrency
}

// Normalize maps any accepted alias to its canonical code. Unknown codes
// resolve to the default reporting currency; it never fails.
func (p *currencyProcessorImpl) Normalize(code string) models.CurrencyCode {
	if c, ok := lookupCurrency(code); ok {
		return c
	}
	return p.defaultCurrency
}

func (p *currencyProcessorImpl) ResolveCurrency(explicit, accountID string, accountCurrencies map[string]string, fallback models.CurrencyCode) models.CurrencyCode {
	if strings.TrimSpace(explicit) != "" {
		return p.Normalize(explicit)
	}
	if cur, ok := accountCurrencies[accountID]; ok && strings.TrimSpace(cur) != "" {
		return p.Normalize(cur)
	}
	if fallback != "" {
		return fallback
	}
	return p.defaultCurrency
}

// Convert converts amount between two canonical currencies.
//
// Lookup order: direct pair, inverse pair, then through the pivot. When no
// rate path exists the amount is returned unconverted. This identity fallback
// keeps aggregates computable with an incomplete rate table at the cost of
// mixing currencies in the totals; callers get a best-effort value, not a guarantee.
func (p *currencyProcessorImpl) Convert(amount float64, from, to models.CurrencyCode, rates models.RateTable) float64 {
	if from == to || amount == 0 {
		return amount
	}
	if rate, ok := validRate(rates.Pairs[models.PairKey(from, to)]); ok {
		return amount * rate
	}
	if rate, ok := validRate(rates.Pairs[models.PairKey(to, from)]); ok {
		return amount / rate
	}

	fromRate, okFrom := pivotRate(rates, from)
	toRate, okTo := pivotRate(rates, to)
	if !okFrom || !okTo {
		logger.L.Debug("No conversion rate path, using unconverted amount", "from", from, "to", to)
		return amount
	}
	converted := amount / fromRate * toRate
	if math.IsInf(converted, 0) || math.IsNaN(converted) {
		return amount
	}
	return converted
}

// pivotRate returns units of code per pivot unit; the pivot itself is always 1.
func pivotRate(rates models.RateTable, code models.CurrencyCode) (float64, bool) {
	if code == models.PivotCurrency {
		return 1, true
	}
	return validRate(rates.Rates[code])
}

func validRate(r float64) (float64, bool) {
	if r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
		return 0, false
	}
	return r, true
}
