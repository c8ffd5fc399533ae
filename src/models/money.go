// backend/src/models/money.go
package models

// CurrencyCode is a canonical ISO-4217 code from the supported set.
type CurrencyCode string

const (
	CurrencyUZS CurrencyCode = "UZS"
	CurrencyUSD CurrencyCode = "USD"
	CurrencyEUR CurrencyCode = "EUR"
	CurrencyGBP CurrencyCode = "GBP"
	CurrencyRUB CurrencyCode = "RUB"
	CurrencyTRY CurrencyCode = "TRY"
	CurrencyKZT CurrencyCode = "KZT"
	CurrencyCNY CurrencyCode = "CNY"
	CurrencyAED CurrencyCode = "AED"
	CurrencySAR CurrencyCode = "SAR"
)

// PivotCurrency is the currency every rate in a RateTable is quoted against.
const PivotCurrency = CurrencyUSD

// SupportedCurrencies lists the canonical codes in display order.
var SupportedCurrencies = []CurrencyCode{
	CurrencyUZS, CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyRUB,
	CurrencyTRY, CurrencyKZT, CurrencyCNY, CurrencyAED, CurrencySAR,
}

// IsSupported reports whether c is one of the canonical codes.
func (c CurrencyCode) IsSupported() bool {
	for _, s := range SupportedCurrencies {
		if s == c {
			return true
		}
	}
	return false
}

// RateTable holds the conversion rates known at snapshot time.
// Rates maps a currency to the number of its units per one PivotCurrency unit.
// Pairs holds optional direct cross rates keyed "FROM/TO" (amount_to = amount_from * rate).
type RateTable struct {
	Rates     map[CurrencyCode]float64 `json:"rates"`
	Pairs     map[string]float64       `json:"pairs,omitempty"`
	UpdatedAt string                   `json:"updated_at,omitempty"`
}

// PairKey builds the Pairs key for a direct rate.
func PairKey(from, to CurrencyCode) string {
	return string(from) + "/" + string(to)
}
