package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/leora/backend/src/models"
)

func TestCurrencyProcessor_Normalize(t *testing.T) {
	p := NewCurrencyProcessor("UZS")

	tests := []struct {
		input string
		want  models.CurrencyCode
	}{
		{"usd", models.CurrencyUSD},
		{" $ ", models.CurrencyUSD},
		{"so'm", models.CurrencyUZS},
		{"сум", models.CurrencyUZS},
		{"€", models.CurrencyEUR},
		{"RUR", models.CurrencyRUB},
		{"₺", models.CurrencyTRY},
		{"RMB", models.CurrencyCNY},
		{"XYZ", models.CurrencyUZS},
		{"", models.CurrencyUZS},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Normalize(tt.input))
		})
	}
}

func TestNewCurrencyProcessor_UnknownDefaultFallsBackToPivot(t *testing.T) {
	p := NewCurrencyProcessor("doubloons")
	assert.Equal(t, models.PivotCurrency, p.DefaultCurrency())
}

func TestCurrencyProcessor_Convert(t *testing.T) {
	p := NewCurrencyProcessor("UZS")
	rates := testRates()

	t.Run("identity", func(t *testing.T) {
		for _, c := range models.SupportedCurrencies {
			assert.Equal(t, 123.45, p.Convert(123.45, c, c, rates))
		}
	})

	t.Run("via pivot", func(t *testing.T) {
		assert.InDelta(t, 12500.0, p.Convert(1, models.CurrencyUSD, models.CurrencyUZS, rates), 1e-9)
		assert.InDelta(t, 1.0, p.Convert(0.9, models.CurrencyEUR, models.CurrencyUSD, rates), 1e-9)
		assert.InDelta(t, 12500.0, p.Convert(0.9, models.CurrencyEUR, models.CurrencyUZS, rates), 1e-6)
	})

	t.Run("round trip", func(t *testing.T) {
		pairs := [][2]models.CurrencyCode{
			{models.CurrencyUSD, models.CurrencyUZS},
			{models.CurrencyEUR, models.CurrencyUZS},
			{models.CurrencyEUR, models.CurrencyUSD},
		}
		for _, pair := range pairs {
			there := p.Convert(250, pair[0], pair[1], rates)
			back := p.Convert(there, pair[1], pair[0], rates)
			assert.InDelta(t, 250.0, back, 1e-6, "%s -> %s", pair[0], pair[1])
		}
	})

	t.Run("direct pair wins over pivot", func(t *testing.T) {
		withPair := testRates()
		withPair.Pairs[models.PairKey(models.CurrencyEUR, models.CurrencyUZS)] = 14000
		assert.InDelta(t, 28000.0, p.Convert(2, models.CurrencyEUR, models.CurrencyUZS, withPair), 1e-9)
		assert.InDelta(t, 2.0, p.Convert(28000, models.CurrencyUZS, models.CurrencyEUR, withPair), 1e-9)
	})

	t.Run("missing rate is identity", func(t *testing.T) {
		assert.Equal(t, 500.0, p.Convert(500, models.CurrencyGBP, models.CurrencyUZS, rates))
	})

	t.Run("invalid rate is ignored", func(t *testing.T) {
		bad := testRates()
		bad.Rates[models.CurrencyGBP] = 0
		assert.Equal(t, 10.0, p.Convert(10, models.CurrencyGBP, models.CurrencyUSD, bad))
	})
}

func TestCurrencyProcessor_ResolveCurrency(t *testing.T) {
	p := NewCurrencyProcessor("UZS")
	accounts := map[string]string{"acc-usd": "usd", "acc-blank": ""}

	assert.Equal(t, models.CurrencyEUR, p.ResolveCurrency("eur", "acc-usd", accounts, models.CurrencyUZS))
	assert.Equal(t, models.CurrencyUSD, p.ResolveCurrency("", "acc-usd", accounts, models.CurrencyUZS))
	assert.Equal(t, models.CurrencyKZT, p.ResolveCurrency("", "acc-blank", accounts, models.CurrencyKZT))
	assert.Equal(t, models.CurrencyKZT, p.ResolveCurrency("", "missing", accounts, models.CurrencyKZT))
	assert.Equal(t, models.CurrencyUZS, p.ResolveCurrency("", "missing", nil, ""))
}
