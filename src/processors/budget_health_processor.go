package processors

import (
	"math"

	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/utils"
)

// warningRatio is the share of the limit from which a budget is flagged.
const warningRatio = 0.9

// ResolveBudgetHealth classifies a budget from its limit and spent amount.
// It is total over all numeric inputs.
func ResolveBudgetHealth(limit, spent float64) models.BudgetHealthState {
	switch {
	case limit <= 0:
		return models.BudgetFixed
	case spent > limit:
		return models.BudgetExceeding
	case spent >= warningRatio*limit:
		return models.BudgetWarning
	default:
		return models.BudgetWithin
	}
}

type budgetHealthProcessorImpl struct {
	currency CurrencyProcessor
}

func NewBudgetHealthProcessor(currency CurrencyProcessor) BudgetHealthProcessor {
	return &budgetHealthProcessorImpl{currency: currency}
}

func (p *budgetHealthProcessorImpl) Resolve(limit, spent float64) models.BudgetHealthState {
	return ResolveBudgetHealth(limit, spent)
}

// Views derives one BudgetView per budget, in snapshot order.
func (p *budgetHealthProcessorImpl) Views(ctx SnapshotContext) []models.BudgetView {
	if ctx.Snapshot == nil {
		return []models.BudgetView{}
	}
	accountCurrencies := ctx.Snapshot.AccountCurrencies()
	views := make([]models.BudgetView, 0, len(ctx.Snapshot.Budgets))

	for _, b := range ctx.Snapshot.Budgets {
		cur := p.currency.ResolveCurrency(b.Currency, b.AccountID, accountCurrencies, ctx.ReportingCurrency)
		percent := utils.RoundFloat(b.PercentUsed(), 1)
		if math.IsNaN(percent) || math.IsInf(percent, 0) {
			percent = 0
		}
		categoryIDs := b.CategoryIDs
		if categoryIDs == nil {
			categoryIDs = []string{}
		}
		views = append(views, models.BudgetView{
			ID:             b.ID,
			Name:           b.Name,
			Currency:       cur,
			Limit:          b.LimitAmount,
			Spent:          b.SpentAmount,
			LimitReporting: utils.RoundFloat(p.currency.Convert(b.LimitAmount, cur, ctx.ReportingCurrency, ctx.Rates), 2),
			SpentReporting: utils.RoundFloat(p.currency.Convert(b.SpentAmount, cur, ctx.ReportingCurrency, ctx.Rates), 2),
			PercentUsed:    percent,
			State:          ResolveBudgetHealth(b.LimitAmount, b.SpentAmount),
			NotifyOnExceed: b.NotifyOnExceed,
			CategoryIDs:    categoryIDs,
		})
	}
	return views
}
