// backend/src/processors/aggregation_processor.go
package processors

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/utils"
)

const (
	topCategoryLimit      = 5
	uncategorizedCategory = "uncategorized"
	// deltaBaseFloor is the smallest previous value DeltaOrNull compares against.
	deltaBaseFloor = 1.0
)

// txView is a transaction with its parsed local time and its absolute amount
// in the reporting currency.
type txView struct {
	tx     models.Transaction
	when   time.Time
	amount float64
}

// reportingTransactions parses and converts the snapshot's transactions.
// Records with malformed dates or non-finite amounts are dropped.
func reportingTransactions(ctx SnapshotContext, currency CurrencyProcessor) []txView {
	if ctx.Snapshot == nil {
		return nil
	}
	loc := ctx.Reference.Location()
	accountCurrencies := ctx.Snapshot.AccountCurrencies()

	views := make([]txView, 0, len(ctx.Snapshot.Transactions))
	skipped := 0
	for _, tx := range ctx.Snapshot.Transactions {
		when, ok := utils.ParseTimestamp(tx.Date, loc)
		if !ok || math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
			skipped++
			continue
		}
		cur := currency.ResolveCurrency(tx.Currency, tx.AccountID, accountCurrencies, ctx.ReportingCurrency)
		amount := currency.Convert(math.Abs(tx.Amount), cur, ctx.ReportingCurrency, ctx.Rates)
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			skipped++
			continue
		}
		views = append(views, txView{tx: tx, when: when, amount: amount})
	}
	if skipped > 0 {
		logger.L.Debug("Skipped transactions with malformed date or amount", "count", skipped)
	}
	return views
}

// Delta is the percentage change from previous to current, rounded to one decimal.
// A zero base reports 100 for any positive current value and 0 otherwise.
func Delta(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return utils.RoundFloat((current-previous)/previous*100, 1)
}

// DeltaOrNull is Delta without a meaningful base: it returns nil whenever |previous| < 1.
func DeltaOrNull(current, previous float64) *float64 {
	if math.Abs(previous) < deltaBaseFloor {
		return nil
	}
	d := Delta(current, previous)
	return &d
}

type aggregationProcessorImpl struct {
	currency CurrencyProcessor
	budgets  BudgetHealthProcessor
}

func NewAggregationProcessor(currency CurrencyProcessor, budgets BudgetHealthProcessor) AggregationProcessor {
	return &aggregationProcessorImpl{currency: currency, budgets: budgets}
}

type categoryTotal struct {
	id     string
	amount decimal.Decimal
}

// Aggregate compares the reference's calendar month against the previous one.
func (p *aggregationProcessorImpl) Aggregate(ctx SnapshotContext) models.AnalyticsSnapshot {
	curStart := utils.StartOfMonth(ctx.Reference)
	nextStart := curStart.AddDate(0, 1, 0)
	prevStart := curStart.AddDate(0, -1, 0)

	var curIncome, curExpense, prevIncome, prevExpense, allExpense decimal.Decimal
	dailyExpense := make(map[string]decimal.Decimal)
	categoryIndex := make(map[string]int)
	var categories []categoryTotal

	for _, v := range reportingTransactions(ctx, p.currency) {
		if v.tx.Type != models.TransactionIncome && v.tx.Type != models.TransactionExpense {
			continue
		}
		amount := decimal.NewFromFloat(v.amount)

		if v.tx.Type == models.TransactionExpense {
			// Category ranking covers the whole history, not only the window.
			cat := v.tx.CategoryID
			if cat == "" {
				cat = uncategorizedCategory
			}
			i, seen := categoryIndex[cat]
			if !seen {
				i = len(categories)
				categoryIndex[cat] = i
				categories = append(categories, categoryTotal{id: cat})
			}
			categories[i].amount = categories[i].amount.Add(amount)
			allExpense = allExpense.Add(amount)
		}

		switch {
		case inWindow(v.when, curStart, nextStart):
			if v.tx.Type == models.TransactionIncome {
				curIncome = curIncome.Add(amount)
			} else {
				curExpense = curExpense.Add(amount)
				key := utils.DateKey(v.when)
				dailyExpense[key] = dailyExpense[key].Add(amount)
			}
		case inWindow(v.when, prevStart, curStart):
			if v.tx.Type == models.TransactionIncome {
				prevIncome = prevIncome.Add(amount)
			} else {
				prevExpense = prevExpense.Add(amount)
			}
		}
	}

	income := money(curIncome)
	expense := money(curExpense)
	lastIncome := money(prevIncome)
	lastExpense := money(prevExpense)

	snapshot := models.AnalyticsSnapshot{
		ReportingCurrency: ctx.ReportingCurrency,
		ReferenceDate:     utils.DateKey(ctx.Reference),
		CurrentPeriod:     curStart.Format("2006-01"),
		PreviousPeriod:    prevStart.Format("2006-01"),
		Income:            comparisonRow("income", income, lastIncome, false),
		Expense:           comparisonRow("expense", expense, lastExpense, true),
		Savings:           comparisonRow("savings", money(curIncome.Sub(curExpense)), money(prevIncome.Sub(prevExpense)), false),
		ExpenseTrend:      DeltaOrNull(expense, lastExpense),
		TopCategories:     topCategories(categories, allExpense),
		Budgets:           p.budgets.Views(ctx),
	}

	snapshot.Peak, snapshot.AverageDailyExpense = peakAndAverage(dailyExpense, curExpense)
	return snapshot
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// comparisonRow builds a row whose direction is "up" when the change is favourable.
// For expenses spending less (or the same) is favourable.
func comparisonRow(metric string, current, previous float64, lowerIsBetter bool) models.ComparisonRow {
	favourable := current >= previous
	if lowerIsBetter {
		favourable = current <= previous
	}
	direction := models.DirectionDown
	if favourable {
		direction = models.DirectionUp
	}
	return models.ComparisonRow{
		Metric:    metric,
		Current:   current,
		Previous:  previous,
		Delta:     Delta(current, previous),
		Direction: direction,
	}
}

// peakAndAverage returns the highest-expense day (earliest wins a tie) and the
// average over the days that had at least one expense.
func peakAndAverage(daily map[string]decimal.Decimal, total decimal.Decimal) (*models.PeakDay, float64) {
	if len(daily) == 0 {
		return nil, 0
	}
	keys := make([]string, 0, len(daily))
	for k := range daily {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	peakKey := keys[0]
	for _, k := range keys[1:] {
		if daily[k].GreaterThan(daily[peakKey]) {
			peakKey = k
		}
	}
	avg := total.Div(decimal.NewFromInt(int64(len(daily))))
	return &models.PeakDay{Date: peakKey, Amount: money(daily[peakKey])}, money(avg)
}

// topCategories ranks categories by amount (stable, so first-encountered wins ties)
// and keeps the top five. Shares are relative to all categories and their sum is
// capped at 100 by trimming rounding excess from the tail.
func topCategories(categories []categoryTotal, total decimal.Decimal) []models.CategoryShare {
	ranked := make([]categoryTotal, len(categories))
	copy(ranked, categories)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].amount.GreaterThan(ranked[j].amount)
	})
	if len(ranked) > topCategoryLimit {
		ranked = ranked[:topCategoryLimit]
	}

	out := make([]models.CategoryShare, 0, len(ranked))
	sum := 0
	for _, c := range ranked {
		share := 0
		if total.IsPositive() {
			share = int(math.Round(c.amount.Div(total).InexactFloat64() * 100))
		}
		sum += share
		out = append(out, models.CategoryShare{CategoryID: c.id, Amount: money(c.amount), Share: share})
	}
	for i := len(out) - 1; i >= 0 && sum > 100; i-- {
		cut := sum - 100
		if cut > out[i].Share {
			cut = out[i].Share
		}
		out[i].Share -= cut
		sum -= cut
	}
	return out
}
