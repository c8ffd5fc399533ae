package processors

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/utils"
)

const (
	ScenarioCrossCurrencyShortfall = "cross_currency_shortfall"
	ScenarioDebtDueTomorrow        = "debt_due_tomorrow"
	ScenarioBudgetExceeded         = "budget_exceeded"
	ScenarioNightSpending          = "night_spending"
	ScenarioMissingActivity        = "missing_activity"
)

// RuleOptions tunes the built-in catalog.
type RuleOptions struct {
	MissingActivityDays int     // days since the last expense that trigger a reminder
	NightShareThreshold float64 // share of trailing-week spending at night
	ShortfallWindowDays int     // how far ahead foreign-currency debts are checked
}

// DefaultRuleOptions returns the stock thresholds.
func DefaultRuleOptions() RuleOptions {
	return RuleOptions{
		MissingActivityDays: 2,
		NightShareThreshold: 0.35,
		ShortfallWindowDays: 3,
	}
}

// DefaultScenarioRules returns the built-in catalog in declaration order.
// New scenarios are appended; existing entries are not reordered.
func DefaultScenarioRules(opts RuleOptions) []ScenarioRule {
	if opts.MissingActivityDays <= 0 {
		opts.MissingActivityDays = DefaultRuleOptions().MissingActivityDays
	}
	if opts.NightShareThreshold <= 0 {
		opts.NightShareThreshold = DefaultRuleOptions().NightShareThreshold
	}
	if opts.ShortfallWindowDays < 0 {
		opts.ShortfallWindowDays = DefaultRuleOptions().ShortfallWindowDays
	}

	return []ScenarioRule{
		{
			Scenario: ScenarioCrossCurrencyShortfall,
			Priority: 90,
			Category: "debts",
			Detect:   detectCrossCurrencyShortfall(opts.ShortfallWindowDays),
			Render:   renderCrossCurrencyShortfall,
		},
		{
			Scenario: ScenarioDebtDueTomorrow,
			Priority: 80,
			Category: "debts",
			Detect:   detectDebtDueTomorrow,
			Render:   renderDebtDueTomorrow,
		},
		{
			Scenario: ScenarioBudgetExceeded,
			Priority: 70,
			Category: "budgets",
			Detect:   detectBudgetExceeded,
			Render:   renderBudgetExceeded,
		},
		{
			Scenario: ScenarioNightSpending,
			Priority: 60,
			Category: "spending",
			Detect:   detectNightSpending(opts.NightShareThreshold),
			Render:   renderNightSpending,
		},
		{
			Scenario: ScenarioMissingActivity,
			Priority: 40,
			Category: "activity",
			Detect:   detectMissingActivity(opts.MissingActivityDays),
			Render:   renderMissingActivity,
		},
	}
}

// --- Detectors ---

// daysUntilDue returns the calendar days from the reference day to the debt's due date.
func daysUntilDue(in *InsightInput, d models.Debt) (int, bool) {
	due, ok := utils.ParseTimestamp(d.DueDate, in.Reference.Location())
	if !ok {
		return 0, false
	}
	return utils.CalendarDaysBetween(in.Reference, due), true
}

func detectCrossCurrencyShortfall(windowDays int) func(in *InsightInput) []ScenarioMatch {
	return func(in *InsightInput) []ScenarioMatch {
		if in.Snapshot == nil {
			return nil
		}
		var matches []ScenarioMatch
		for _, d := range in.Snapshot.Debts {
			if !d.IsOpen() || d.Direction != models.DebtOwedByMe {
				continue
			}
			cur := in.Currency.Normalize(d.PrincipalCurrency)
			if cur == in.ReportingCurrency {
				continue
			}
			days, ok := daysUntilDue(in, d)
			if !ok || days < 0 || days > windowDays {
				continue
			}

			var balance float64
			for _, a := range in.Snapshot.Accounts {
				if a.IsArchived || a.AccountType == models.AccountDebt {
					continue
				}
				if in.Currency.Normalize(a.Currency) == cur {
					balance += a.CurrentBalance
				}
			}
			shortfall := d.PrincipalAmount - balance
			if shortfall <= 0 {
				continue
			}
			matches = append(matches, ScenarioMatch{
				Key:      d.ID,
				Days:     days,
				Amount:   utils.RoundFloat(shortfall, 2),
				Currency: cur,
				Subject:  d.CounterpartyName,
				Target:   d.ID,
			})
		}
		return matches
	}
}

func detectDebtDueTomorrow(in *InsightInput) []ScenarioMatch {
	if in.Snapshot == nil {
		return nil
	}
	var matches []ScenarioMatch
	for _, d := range in.Snapshot.Debts {
		if !d.IsOpen() {
			continue
		}
		if days, ok := daysUntilDue(in, d); !ok || days != 1 {
			continue
		}
		matches = append(matches, ScenarioMatch{
			Key:      d.ID,
			Days:     1,
			Amount:   d.PrincipalAmount,
			Currency: in.Currency.Normalize(d.PrincipalCurrency),
			Subject:  d.CounterpartyName,
			Target:   string(d.Direction) + ":" + d.ID,
		})
	}
	return matches
}

func detectBudgetExceeded(in *InsightInput) []ScenarioMatch {
	var matches []ScenarioMatch
	for _, b := range in.Analytics.Budgets {
		if !b.NotifyOnExceed || b.State != models.BudgetExceeding {
			continue
		}
		matches = append(matches, ScenarioMatch{
			Key:      b.ID,
			Percent:  int(math.Round(b.PercentUsed)),
			Amount:   utils.RoundFloat(b.Spent-b.Limit, 2),
			Currency: b.Currency,
			Subject:  b.Name,
			Target:   b.ID,
		})
	}
	return matches
}

func isNightHour(t time.Time) bool {
	h := t.Hour()
	return h >= 22 || h < 6
}

func detectNightSpending(threshold float64) func(in *InsightInput) []ScenarioMatch {
	return func(in *InsightInput) []ScenarioMatch {
		windowStart := in.Reference.Add(-7 * 24 * time.Hour)
		var total, night float64
		for _, v := range reportingTransactions(in.SnapshotContext, in.Currency) {
			if v.tx.Type != models.TransactionExpense {
				continue
			}
			if !v.when.After(windowStart) || v.when.After(in.Reference) {
				continue
			}
			total += v.amount
			if isNightHour(v.when) {
				night += v.amount
			}
		}
		if total <= 0 || night/total <= threshold {
			return nil
		}
		return []ScenarioMatch{{
			Key:      "week",
			Percent:  int(math.Round(night / total * 100)),
			Amount:   utils.RoundFloat(night, 2),
			Currency: in.ReportingCurrency,
		}}
	}
}

func detectMissingActivity(thresholdDays int) func(in *InsightInput) []ScenarioMatch {
	return func(in *InsightInput) []ScenarioMatch {
		var latest time.Time
		found := false
		for _, v := range reportingTransactions(in.SnapshotContext, in.Currency) {
			if v.tx.Type != models.TransactionExpense || v.when.After(in.Reference) {
				continue
			}
			if !found || v.when.After(latest) {
				latest = v.when
				found = true
			}
		}
		if !found {
			return nil
		}
		days := utils.CalendarDaysBetween(latest, in.Reference)
		if days < thresholdDays {
			return nil
		}
		return []ScenarioMatch{{Key: "expense", Days: days}}
	}
}

// --- Templates ---

func byTone(tone models.InsightTone, friend, polite, strict string) string {
	switch tone {
	case models.TonePolite:
		return polite
	case models.ToneStrict:
		return strict
	default:
		return friend
	}
}

func formatMoney(amount float64, cur models.CurrencyCode) string {
	return humanize.CommafWithDigits(amount, 2) + " " + string(cur)
}

func renderCrossCurrencyShortfall(m ScenarioMatch, tone models.InsightTone) CardTemplate {
	amount := formatMoney(m.Amount, m.Currency)
	return CardTemplate{
		Title: byTone(tone, "Short on "+string(m.Currency), "Insufficient "+string(m.Currency)+" balance", string(m.Currency)+" shortfall"),
		Body: byTone(tone,
			fmt.Sprintf("Your debt to %s is due in %d day(s) and you're %s short. Time to top up!", m.Subject, m.Days, amount),
			fmt.Sprintf("A payment to %s is due in %d day(s). Your %s balance is %s short.", m.Subject, m.Days, m.Currency, amount),
			fmt.Sprintf("Debt to %s due in %d day(s). Missing %s. Exchange or transfer funds now.", m.Subject, m.Days, amount)),
		CTA: models.InsightAction{Label: "Open debt", Action: "open_debt", Target: m.Target},
		Payload: map[string]string{
			"debt_id":   m.Target,
			"shortfall": strconv.FormatFloat(m.Amount, 'f', 2, 64),
			"currency":  string(m.Currency),
			"days":      strconv.Itoa(m.Days),
		},
	}
}

func renderDebtDueTomorrow(m ScenarioMatch, tone models.InsightTone) CardTemplate {
	amount := formatMoney(m.Amount, m.Currency)
	return CardTemplate{
		Title: byTone(tone, "Due tomorrow", "Debt due tomorrow", "Payment deadline tomorrow"),
		Body: byTone(tone,
			fmt.Sprintf("Heads up: %s with %s is due tomorrow.", amount, m.Subject),
			fmt.Sprintf("Please note that %s with %s is due tomorrow.", amount, m.Subject),
			fmt.Sprintf("%s with %s is due tomorrow. Settle it.", amount, m.Subject)),
		CTA:     models.InsightAction{Label: "View debt", Action: "open_debt", Target: m.Target},
		Payload: map[string]string{"debt": m.Target, "amount": strconv.FormatFloat(m.Amount, 'f', 2, 64), "currency": string(m.Currency)},
	}
}

func renderBudgetExceeded(m ScenarioMatch, tone models.InsightTone) CardTemplate {
	over := formatMoney(m.Amount, m.Currency)
	return CardTemplate{
		Title: byTone(tone, m.Subject+" went over", "Budget exceeded", m.Subject+" over limit"),
		Body: byTone(tone,
			fmt.Sprintf("You've used %d%% of %s, %s over the plan. Let's slow down a bit.", m.Percent, m.Subject, over),
			fmt.Sprintf("The %s budget is at %d%% of its limit (%s over).", m.Subject, m.Percent, over),
			fmt.Sprintf("%s is %s over limit (%d%%). Stop spending in this category.", m.Subject, over, m.Percent)),
		CTA:     models.InsightAction{Label: "Open budget", Action: "open_budget", Target: m.Target},
		Payload: map[string]string{"budget_id": m.Target, "percent": strconv.Itoa(m.Percent)},
	}
}

func renderNightSpending(m ScenarioMatch, tone models.InsightTone) CardTemplate {
	return CardTemplate{
		Title: byTone(tone, "Late-night spending", "Night-time expenses", "Night spending alert"),
		Body: byTone(tone,
			fmt.Sprintf("%d%% of this week's spending happened between 22:00 and 06:00. Sleep on it next time?", m.Percent),
			fmt.Sprintf("%d%% of your expenses in the last 7 days were made at night (%s).", m.Percent, formatMoney(m.Amount, m.Currency)),
			fmt.Sprintf("%d%% of weekly spending at night. Set a night limit.", m.Percent)),
		CTA:     models.InsightAction{Label: "See transactions", Action: "open_transactions", Target: "night"},
		Payload: map[string]string{"percent": strconv.Itoa(m.Percent)},
	}
}

func renderMissingActivity(m ScenarioMatch, tone models.InsightTone) CardTemplate {
	return CardTemplate{
		Title: byTone(tone, "Quiet wallet?", "No recent expenses", "Log your expenses"),
		Body: byTone(tone,
			fmt.Sprintf("No expenses logged for %d days. Did you really spend nothing?", m.Days),
			fmt.Sprintf("You have not recorded any expenses for %d days.", m.Days),
			fmt.Sprintf("%d days without records. Add your expenses now.", m.Days)),
		CTA:     models.InsightAction{Label: "Add expense", Action: "add_transaction", Target: "expense"},
		Payload: map[string]string{"days": strconv.Itoa(m.Days)},
	}
}
