// backend/src/processors/interfaces.go
package processors

import (
	"time"

	"github.com/username/leora/backend/src/models"
)

// SnapshotContext bundles a snapshot with the parameters every engine component needs.
// Reference.Location() is the local zone used for day and month boundaries.
type SnapshotContext struct {
	Snapshot          *models.Snapshot
	Reference         time.Time
	ReportingCurrency models.CurrencyCode
	Rates             models.RateTable
}

// CurrencyProcessor canonicalizes currency codes and converts between currencies.
type CurrencyProcessor interface {
	Normalize(code string) models.CurrencyCode
	Convert(amount float64, from, to models.CurrencyCode, rates models.RateTable) float64
	// ResolveCurrency applies the explicit → account → fallback chain.
	ResolveCurrency(explicit, accountID string, accountCurrencies map[string]string, fallback models.CurrencyCode) models.CurrencyCode
	DefaultCurrency() models.CurrencyCode
}

// BudgetHealthProcessor classifies budgets.
type BudgetHealthProcessor interface {
	Resolve(limit, spent float64) models.BudgetHealthState
	Views(ctx SnapshotContext) []models.BudgetView
}

// AggregationProcessor computes month-over-month analytics.
type AggregationProcessor interface {
	Aggregate(ctx SnapshotContext) models.AnalyticsSnapshot
}

// ProgressProcessor computes the daily progress rings for ctx.Reference.
type ProgressProcessor interface {
	Progress(ctx SnapshotContext) models.ProgressData
}

// CalendarProcessor merges the dated event streams into one index.
type CalendarProcessor interface {
	Build(ctx SnapshotContext) models.CalendarIndex
}

// InsightProcessor evaluates the scenario catalog.
type InsightProcessor interface {
	Evaluate(in *InsightInput) []models.InsightCard
	Rules() []ScenarioRule
}
