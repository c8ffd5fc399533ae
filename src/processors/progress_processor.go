package processors

import (
	"time"

	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/utils"
)

// dayIndex pre-buckets the snapshot by local date key so per-day progress and
// calendar entries can be derived without rescanning every record.
type dayIndex struct {
	loc          *time.Location
	tasksDue     map[string]int
	tasksDone    map[string]int
	habitsDone   map[string]int // done entries across all habits, archived included
	goalEvents   map[string]int
	transactions map[string]int
	expense      map[string]float64
	habits       []trackedHabit
	cappedLimit  float64 // sum of positive budget limits in reporting currency
	hasCapped    bool
	dates        map[string]struct{}
}

type trackedHabit struct {
	since   string // date key the habit starts counting from, "" when unknown
	history map[string]models.HabitDayStatus
}

// dayScores are the same-day progress values, each 0–100 with a presence flag.
type dayScores struct {
	tasks, budget, habits          float64
	hasTasks, hasBudget, hasHabits bool
}

func buildDayIndex(ctx SnapshotContext, currency CurrencyProcessor, budgets BudgetHealthProcessor) *dayIndex {
	idx := &dayIndex{
		loc:          ctx.Reference.Location(),
		tasksDue:     make(map[string]int),
		tasksDone:    make(map[string]int),
		habitsDone:   make(map[string]int),
		goalEvents:   make(map[string]int),
		transactions: make(map[string]int),
		expense:      make(map[string]float64),
		dates:        make(map[string]struct{}),
	}
	if ctx.Snapshot == nil {
		return idx
	}

	for _, t := range ctx.Snapshot.Tasks {
		key, ok := idx.key(t.DueDate)
		if !ok {
			continue
		}
		idx.tasksDue[key]++
		if t.Completed {
			idx.tasksDone[key]++
		}
	}

	for _, h := range ctx.Snapshot.Habits {
		for raw, status := range h.CompletionHistory {
			key, ok := idx.key(raw)
			if !ok {
				continue
			}
			if status == models.HabitDone {
				idx.habitsDone[key]++
			}
		}
		if h.Archived {
			continue
		}
		since := ""
		if t, ok := utils.ParseTimestamp(h.CreatedAt, idx.loc); ok {
			since = utils.DateKey(t)
		}
		idx.habits = append(idx.habits, trackedHabit{since: since, history: normalizeHistory(h.CompletionHistory, idx.loc)})
	}

	for _, g := range ctx.Snapshot.Goals {
		for _, raw := range g.CheckIns {
			if key, ok := idx.key(raw); ok {
				idx.goalEvents[key]++
			}
		}
		for _, m := range g.Milestones {
			if key, ok := idx.key(m.DueDate); ok {
				idx.goalEvents[key]++
			}
		}
	}

	for _, v := range reportingTransactions(ctx, currency) {
		key := utils.DateKey(v.when)
		idx.dates[key] = struct{}{}
		idx.transactions[key]++
		if v.tx.Type == models.TransactionExpense {
			idx.expense[key] += v.amount
		}
	}

	for _, b := range budgets.Views(ctx) {
		if b.State == models.BudgetFixed {
			continue
		}
		idx.cappedLimit += b.LimitReporting
		idx.hasCapped = true
	}
	return idx
}

// key parses a raw date and records it in the union of referenced dates.
func (idx *dayIndex) key(raw string) (string, bool) {
	t, ok := utils.ParseTimestamp(raw, idx.loc)
	if !ok {
		return "", false
	}
	k := utils.DateKey(t)
	idx.dates[k] = struct{}{}
	return k, true
}

func normalizeHistory(history map[string]models.HabitDayStatus, loc *time.Location) map[string]models.HabitDayStatus {
	out := make(map[string]models.HabitDayStatus, len(history))
	for raw, status := range history {
		if t, ok := utils.ParseTimestamp(raw, loc); ok {
			out[utils.DateKey(t)] = status
		}
	}
	return out
}

// scores computes tasks, budget and habit progress for one day.
func (idx *dayIndex) scores(day time.Time) dayScores {
	key := utils.DateKey(day)
	var s dayScores

	if due := idx.tasksDue[key]; due > 0 {
		s.tasks = float64(idx.tasksDone[key]) / float64(due) * 100
		s.hasTasks = true
	}

	// Budget: that day's spending against the daily allowance of all capped budgets.
	if idx.hasCapped {
		allowance := idx.cappedLimit / float64(utils.DaysInMonth(day))
		if allowance > 0 {
			spent := idx.expense[key]
			s.budget = 100
			if spent > allowance {
				s.budget = 100 - (spent-allowance)/allowance*100
				if s.budget < 0 {
					s.budget = 0
				}
			}
			s.hasBudget = true
		}
	}

	tracked, done := 0, 0
	for _, h := range idx.habits {
		if h.since != "" && h.since > key {
			continue
		}
		tracked++
		if h.history[key] == models.HabitDone {
			done++
		}
	}
	if tracked > 0 {
		s.habits = float64(done) / float64(tracked) * 100
		s.hasHabits = true
	}
	return s
}

type progressProcessorImpl struct {
	currency CurrencyProcessor
	budgets  BudgetHealthProcessor
}

func NewProgressProcessor(currency CurrencyProcessor, budgets BudgetHealthProcessor) ProgressProcessor {
	return &progressProcessorImpl{currency: currency, budgets: budgets}
}

// Progress returns the rings for ctx.Reference's day; missing data reads as 0.
func (p *progressProcessorImpl) Progress(ctx SnapshotContext) models.ProgressData {
	s := buildDayIndex(ctx, p.currency, p.budgets).scores(ctx.Reference)
	return models.ProgressData{
		Date:   utils.DateKey(ctx.Reference),
		Tasks:  utils.ClampPercent(s.tasks),
		Budget: utils.ClampPercent(s.budget),
		Focus:  utils.ClampPercent(s.habits),
	}
}
