package processors

import (
	"time"

	"github.com/username/leora/backend/src/models"
)

var tashkent = time.FixedZone("UZT", 5*3600)

// testRates: 1 USD = 12 500 UZS = 0.9 EUR.
func testRates() models.RateTable {
	return models.RateTable{
		Rates: map[models.CurrencyCode]float64{
			models.CurrencyUZS: 12500,
			models.CurrencyEUR: 0.9,
		},
		Pairs: map[string]float64{},
	}
}

func newTestContext(snap *models.Snapshot, ref time.Time) SnapshotContext {
	return SnapshotContext{
		Snapshot:          snap,
		Reference:         ref,
		ReportingCurrency: models.CurrencyUZS,
		Rates:             testRates(),
	}
}

type testEngine struct {
	currency    CurrencyProcessor
	budgets     BudgetHealthProcessor
	aggregation AggregationProcessor
	progress    ProgressProcessor
	calendar    CalendarProcessor
}

func newTestEngine() testEngine {
	currency := NewCurrencyProcessor("UZS")
	budgets := NewBudgetHealthProcessor(currency)
	return testEngine{
		currency:    currency,
		budgets:     budgets,
		aggregation: NewAggregationProcessor(currency, budgets),
		progress:    NewProgressProcessor(currency, budgets),
		calendar:    NewCalendarProcessor(currency, budgets),
	}
}

func expenseTx(id, date string, amount float64, category string) models.Transaction {
	return models.Transaction{
		ID:         id,
		Type:       models.TransactionExpense,
		Amount:     amount,
		Currency:   "UZS",
		AccountID:  "acc-cash",
		CategoryID: category,
		Date:       date,
	}
}

func incomeTx(id, date string, amount float64) models.Transaction {
	return models.Transaction{
		ID:        id,
		Type:      models.TransactionIncome,
		Amount:    amount,
		Currency:  "UZS",
		AccountID: "acc-cash",
		Date:      date,
	}
}
