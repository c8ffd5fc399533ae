// backend/src/processors/calendar_processor.go
package processors

import (
	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/utils"
)

// Indicator thresholds for the synthesized status vector.
const (
	successThreshold = 70.0
	warningThreshold = 40.0
)

type calendarProcessorImpl struct {
	currency CurrencyProcessor
	budgets  BudgetHealthProcessor
}

func NewCalendarProcessor(currency CurrencyProcessor, budgets BudgetHealthProcessor) CalendarProcessor {
	return &calendarProcessorImpl{currency: currency, budgets: budgets}
}

// Build indexes every date referenced by a task, habit, goal or transaction, plus
// the reference date. A date with explicit events gets their counts; any other
// date gets a [tasks, budget, habits] status vector. Never both.
func (p *calendarProcessorImpl) Build(ctx SnapshotContext) models.CalendarIndex {
	idx := buildDayIndex(ctx, p.currency, p.budgets)
	idx.dates[utils.DateKey(ctx.Reference)] = struct{}{}

	out := make(models.CalendarIndex, len(idx.dates))
	for key := range idx.dates {
		counts := make(models.EventCounts)
		addCount(counts, models.EventTask, idx.tasksDue[key])
		addCount(counts, models.EventHabit, idx.habitsDone[key])
		addCount(counts, models.EventGoal, idx.goalEvents[key])
		addCount(counts, models.EventFinance, idx.transactions[key])
		if counts.Total() > 0 {
			out[key] = counts
			continue
		}

		day, ok := utils.ParseTimestamp(key, idx.loc)
		if !ok {
			continue
		}
		s := idx.scores(day)
		out[key] = models.StatusVector{
			indicatorFor(s.tasks, s.hasTasks),
			indicatorFor(s.budget, s.hasBudget),
			indicatorFor(s.habits, s.hasHabits),
		}
	}
	return out
}

func addCount(counts models.EventCounts, kind models.CalendarEventType, n int) {
	if n > 0 {
		counts[kind] = n
	}
}

// indicatorFor maps a 0–100 score to an indicator colour.
func indicatorFor(score float64, ok bool) models.IndicatorStatus {
	switch {
	case !ok:
		return models.IndicatorMuted
	case score >= successThreshold:
		return models.IndicatorSuccess
	case score >= warningThreshold:
		return models.IndicatorWarning
	default:
		return models.IndicatorDanger
	}
}
