package processors

import "github.com/username/leora/backend/src/models"

// Engine bundles the processors that derive metrics from one snapshot.
type Engine struct {
	Currency    CurrencyProcessor
	Budgets     BudgetHealthProcessor
	Aggregation AggregationProcessor
	Progress    ProgressProcessor
	Calendar    CalendarProcessor
	Insights    InsightProcessor
}

// NewEngine wires the processors around a default reporting currency. It fails
// only when the insight catalog is invalid.
func NewEngine(defaultCurrency string, rules []ScenarioRule) (*Engine, error) {
	currency := NewCurrencyProcessor(defaultCurrency)
	budgets := NewBudgetHealthProcessor(currency)
	insights, err := NewInsightProcessor(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{
		Currency:    currency,
		Budgets:     budgets,
		Aggregation: NewAggregationProcessor(currency, budgets),
		Progress:    NewProgressProcessor(currency, budgets),
		Calendar:    NewCalendarProcessor(currency, budgets),
		Insights:    insights,
	}, nil
}

// ReportingCurrency is the canonical default currency of the engine.
func (e *Engine) ReportingCurrency() models.CurrencyCode {
	return e.Currency.DefaultCurrency()
}
