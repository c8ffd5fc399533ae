// backend/src/models/analytics.go
package models

import "encoding/json"

// BudgetHealthState classifies a budget from its limit and spent amount.
type BudgetHealthState string

const (
	BudgetExceeding BudgetHealthState = "exceeding"
	BudgetWarning   BudgetHealthState = "warning"
	BudgetWithin    BudgetHealthState = "within"
	BudgetFixed     BudgetHealthState = "fixed" // no cap, tracked as a savings target
)

// Summary returns the three-state view used by list screens: warning collapses into within.
func (s BudgetHealthState) Summary() BudgetHealthState {
	if s == BudgetWarning {
		return BudgetWithin
	}
	return s
}

// BudgetView is a budget with its derived health. State is the four-state view;
// the summary is derived from it on serialization and never stored.
type BudgetView struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Currency       CurrencyCode      `json:"currency"`
	Limit          float64           `json:"limit"`
	Spent          float64           `json:"spent"`
	LimitReporting float64           `json:"limit_reporting"`
	SpentReporting float64           `json:"spent_reporting"`
	PercentUsed    float64           `json:"percent_used"`
	State          BudgetHealthState `json:"state"`
	NotifyOnExceed bool              `json:"notify_on_exceed"`
	CategoryIDs    []string          `json:"category_ids"`
}

// MarshalJSON adds the derived summary state.
func (v BudgetView) MarshalJSON() ([]byte, error) {
	type alias BudgetView
	return json.Marshal(struct {
		alias
		SummaryState BudgetHealthState `json:"summary_state"`
	}{alias(v), v.State.Summary()})
}

// Direction marks whether a comparison moved in the favourable direction.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ComparisonRow compares a metric between the current and previous month.
type ComparisonRow struct {
	Metric    string    `json:"metric"` // income, expense, savings
	Current   float64   `json:"current"`
	Previous  float64   `json:"previous"`
	Delta     float64   `json:"delta"`
	Direction Direction `json:"direction"`
}

// CategoryShare is one entry of the top categories ranking.
type CategoryShare struct {
	CategoryID string  `json:"category_id"`
	Amount     float64 `json:"amount"`
	Share      int     `json:"share"` // percent of all categories
}

type PeakDay struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// AnalyticsSnapshot is the output of the period aggregation for one reference day.
type AnalyticsSnapshot struct {
	ReportingCurrency   CurrencyCode    `json:"reporting_currency"`
	ReferenceDate       string          `json:"reference_date"`
	CurrentPeriod       string          `json:"current_period"`  // YYYY-MM
	PreviousPeriod      string          `json:"previous_period"` // YYYY-MM
	Income              ComparisonRow   `json:"income"`
	Expense             ComparisonRow   `json:"expense"`
	Savings             ComparisonRow   `json:"savings"`
	Peak                *PeakDay        `json:"peak"`
	AverageDailyExpense float64         `json:"average_daily_expense"`
	ExpenseTrend        *float64        `json:"expense_trend"` // nil when there is no meaningful base
	TopCategories       []CategoryShare `json:"top_categories"`
	Budgets             []BudgetView    `json:"budgets"`
}

// Rows returns the comparison rows in display order.
func (a AnalyticsSnapshot) Rows() []ComparisonRow {
	return []ComparisonRow{a.Income, a.Expense, a.Savings}
}

// ProgressData holds the three daily progress rings, each 0–100.
type ProgressData struct {
	Date   string `json:"date"`
	Tasks  int    `json:"tasks"`
	Budget int    `json:"budget"`
	Focus  int    `json:"focus"`
}
