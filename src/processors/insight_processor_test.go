package processors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/leora/backend/src/models"
)

func newInsightInput(t *testing.T, snap *models.Snapshot, ref time.Time, tone models.InsightTone) *InsightInput {
	t.Helper()
	e := newTestEngine()
	ctx := newTestContext(snap, ref)
	return &InsightInput{
		SnapshotContext: ctx,
		Analytics:       e.aggregation.Aggregate(ctx),
		Tone:            tone,
		Currency:        e.currency,
	}
}

func newDefaultInsightProcessor(t *testing.T) InsightProcessor {
	t.Helper()
	p, err := NewInsightProcessor(DefaultScenarioRules(DefaultRuleOptions()))
	require.NoError(t, err)
	return p
}

func scenarios(cards []models.InsightCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Scenario)
	}
	return out
}

func staticRule(name string, priority int, keys ...string) ScenarioRule {
	return ScenarioRule{
		Scenario: name,
		Priority: priority,
		Category: "test",
		Detect: func(*InsightInput) []ScenarioMatch {
			matches := make([]ScenarioMatch, 0, len(keys))
			for _, k := range keys {
				matches = append(matches, ScenarioMatch{Key: k})
			}
			return matches
		},
		Render: func(m ScenarioMatch, _ models.InsightTone) CardTemplate {
			return CardTemplate{Title: name + ":" + m.Key}
		},
	}
}

func TestNewInsightProcessor_RejectsInvalidCatalog(t *testing.T) {
	valid := staticRule("a", 1, "x")

	tests := []struct {
		name  string
		rules []ScenarioRule
	}{
		{"empty scenario name", []ScenarioRule{{Priority: 1, Detect: valid.Detect, Render: valid.Render}}},
		{"missing detect", []ScenarioRule{{Scenario: "b", Render: valid.Render}}},
		{"missing render", []ScenarioRule{{Scenario: "b", Detect: valid.Detect}}},
		{"duplicate scenario", []ScenarioRule{valid, staticRule("a", 5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewInsightProcessor(tt.rules)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, ErrInvalidRule))
		})
	}
}

func TestDefaultScenarioRules_CatalogIsValid(t *testing.T) {
	p := newDefaultInsightProcessor(t)
	rules := p.Rules()
	require.Len(t, rules, 5)
	assert.Equal(t, ScenarioCrossCurrencyShortfall, rules[0].Scenario)
	assert.Equal(t, ScenarioMissingActivity, rules[4].Scenario)
}

func TestInsightProcessor_OrdersByPriorityThenCatalog(t *testing.T) {
	p, err := NewInsightProcessor([]ScenarioRule{
		staticRule("low", 10, "1"),
		staticRule("high-first", 50, "1", "2"),
		staticRule("mid", 30, "1"),
		staticRule("high-second", 50, "1"),
	})
	require.NoError(t, err)

	cards := p.Evaluate(newInsightInput(t, &models.Snapshot{}, time.Date(2026, 10, 19, 0, 0, 0, 0, tashkent), models.ToneFriend))

	titles := make([]string, 0, len(cards))
	for _, c := range cards {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, []string{"high-first:1", "high-first:2", "high-second:1", "mid:1", "low:1"}, titles)
	for i := 1; i < len(cards); i++ {
		assert.GreaterOrEqual(t, cards[i-1].Priority, cards[i].Priority)
	}
}

func TestInsightProcessor_PanickingRuleIsIsolated(t *testing.T) {
	boom := staticRule("boom", 99, "1")
	boom.Detect = func(in *InsightInput) []ScenarioMatch {
		var m map[string]int
		m["x"] = 1
		return nil
	}
	p, err := NewInsightProcessor([]ScenarioRule{boom, staticRule("ok", 1, "1")})
	require.NoError(t, err)

	cards := p.Evaluate(newInsightInput(t, &models.Snapshot{}, time.Date(2026, 10, 19, 0, 0, 0, 0, tashkent), models.ToneFriend))
	assert.Equal(t, []string{"ok"}, scenarios(cards))
}

func TestInsightProcessor_EmptySnapshotYieldsEmptyList(t *testing.T) {
	p := newDefaultInsightProcessor(t)
	cards := p.Evaluate(newInsightInput(t, &models.Snapshot{}, time.Date(2026, 10, 19, 0, 0, 0, 0, tashkent), models.ToneFriend))
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestDebtDueTomorrow(t *testing.T) {
	ref := time.Date(2026, 10, 19, 20, 0, 0, 0, tashkent)

	tests := []struct {
		name string
		due  string
		want bool
	}{
		{"due in one day", "2026-10-20T09:00:00", true},
		{"due today", "2026-10-19T23:00:00", false},
		{"due in two days", "2026-10-21", false},
	}

	p := newDefaultInsightProcessor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &models.Snapshot{Debts: []models.Debt{{
				ID: "d1", PrincipalAmount: 500000, PrincipalCurrency: "UZS", CounterpartyName: "Aziz",
				Direction: models.DebtOwedToMe, DueDate: tt.due, Status: models.DebtActive,
			}}}
			cards := p.Evaluate(newInsightInput(t, snap, ref, models.ToneFriend))
			assert.Equal(t, tt.want, contains(scenarios(cards), ScenarioDebtDueTomorrow))
		})
	}

	t.Run("paid debt is ignored", func(t *testing.T) {
		snap := &models.Snapshot{Debts: []models.Debt{{
			ID: "d1", PrincipalAmount: 10, DueDate: "2026-10-20", Status: models.DebtPaid, Direction: models.DebtOwedByMe,
		}}}
		assert.Empty(t, p.Evaluate(newInsightInput(t, snap, ref, models.ToneFriend)))
	})

	t.Run("foreign debt without a covering balance", func(t *testing.T) {
		snap := &models.Snapshot{
			Accounts: []models.Account{
				{ID: "usd-card", Currency: "USD", CurrentBalance: 50, AccountType: models.AccountCard},
				{ID: "uzs-cash", Currency: "UZS", CurrentBalance: 9000000, AccountType: models.AccountCash},
			},
			Debts: []models.Debt{{
				ID: "d-usd", PrincipalAmount: 200, PrincipalCurrency: "USD", CounterpartyName: "Bank",
				Direction: models.DebtOwedByMe, DueDate: "2026-10-20", Status: models.DebtActive,
			}},
		}
		cards := p.Evaluate(newInsightInput(t, snap, ref, models.ToneFriend))

		require.Equal(t, []string{ScenarioCrossCurrencyShortfall, ScenarioDebtDueTomorrow}, scenarios(cards))
		assert.Greater(t, cards[0].Priority, cards[1].Priority)
		assert.Equal(t, "150.00", cards[0].Payload["shortfall"])
		assert.Equal(t, "1", cards[0].Payload["days"])
		assert.Equal(t, "owed_by_me:d-usd", cards[1].CTA.Target)
	})
}

func TestMissingActivity(t *testing.T) {
	p := newDefaultInsightProcessor(t)
	snap := &models.Snapshot{Transactions: []models.Transaction{
		expenseTx("e1", "2026-10-16T12:00:00", 1000, "food"),
	}}

	cards := p.Evaluate(newInsightInput(t, snap, time.Date(2026, 10, 19, 9, 0, 0, 0, tashkent), models.ToneFriend))
	require.Contains(t, scenarios(cards), ScenarioMissingActivity)
	card := cards[len(cards)-1]
	assert.Equal(t, "3", card.Payload["days"])

	cards = p.Evaluate(newInsightInput(t, snap, time.Date(2026, 10, 17, 9, 0, 0, 0, tashkent), models.ToneFriend))
	assert.NotContains(t, scenarios(cards), ScenarioMissingActivity)
}

func TestCrossCurrencyShortfall(t *testing.T) {
	p := newDefaultInsightProcessor(t)
	snap := &models.Snapshot{
		Accounts: []models.Account{
			{ID: "usd-card", Currency: "USD", CurrentBalance: 40, AccountType: models.AccountCard},
			{ID: "usd-old", Currency: "USD", CurrentBalance: 1000, AccountType: models.AccountCash, IsArchived: true},
			{ID: "uzs-cash", Currency: "UZS", CurrentBalance: 5000000, AccountType: models.AccountCash},
		},
		Debts: []models.Debt{
			{ID: "d-usd", PrincipalAmount: 100, PrincipalCurrency: "usd", CounterpartyName: "Bank", Direction: models.DebtOwedByMe, DueDate: "2026-10-21", Status: models.DebtActive},
			{ID: "d-far", PrincipalAmount: 100, PrincipalCurrency: "USD", Direction: models.DebtOwedByMe, DueDate: "2026-11-30", Status: models.DebtActive},
			{ID: "d-uzs", PrincipalAmount: 9000000, PrincipalCurrency: "UZS", Direction: models.DebtOwedByMe, DueDate: "2026-10-21", Status: models.DebtActive},
		},
	}

	cards := p.Evaluate(newInsightInput(t, snap, time.Date(2026, 10, 19, 10, 0, 0, 0, tashkent), models.ToneStrict))
	require.NotEmpty(t, cards)
	first := cards[0]
	assert.Equal(t, ScenarioCrossCurrencyShortfall, first.Scenario)
	assert.Equal(t, 90, first.Priority)
	assert.Equal(t, "60.00", first.Payload["shortfall"])
	assert.Equal(t, "d-usd", first.CTA.Target)
	assert.Equal(t, models.ToneStrict, first.Tone)
	assert.Contains(t, first.Body, "60 USD")
	assert.Equal(t, 1, count(scenarios(cards), ScenarioCrossCurrencyShortfall))
}

func TestBudgetExceeded(t *testing.T) {
	p := newDefaultInsightProcessor(t)
	snap := &models.Snapshot{Budgets: []models.Budget{
		{ID: "b1", Name: "Cafes", LimitAmount: 1000, SpentAmount: 1250, Currency: "UZS", NotifyOnExceed: true},
		{ID: "b2", Name: "Quiet", LimitAmount: 1000, SpentAmount: 2000, Currency: "UZS"},
		{ID: "b3", Name: "Close", LimitAmount: 1000, SpentAmount: 950, Currency: "UZS", NotifyOnExceed: true},
	}}

	cards := p.Evaluate(newInsightInput(t, snap, time.Date(2026, 10, 19, 10, 0, 0, 0, tashkent), models.TonePolite))
	require.Len(t, cards, 1)
	assert.Equal(t, ScenarioBudgetExceeded, cards[0].Scenario)
	assert.Equal(t, "125", cards[0].Payload["percent"])
	assert.Equal(t, "Budget exceeded", cards[0].Title)
}

func TestNightSpending(t *testing.T) {
	p := newDefaultInsightProcessor(t)
	snap := &models.Snapshot{Transactions: []models.Transaction{
		expenseTx("n1", "2026-10-18T23:30:00", 600, "bars"),
		expenseTx("n2", "2026-10-17T02:00:00", 200, "taxi"),
		expenseTx("d1", "2026-10-18T13:00:00", 1000, "food"),
		expenseTx("old", "2026-10-01T23:00:00", 5000, "bars"),
	}}
	ref := time.Date(2026, 10, 19, 10, 0, 0, 0, tashkent)

	cards := p.Evaluate(newInsightInput(t, snap, ref, models.ToneFriend))
	require.Contains(t, scenarios(cards), ScenarioNightSpending)

	for _, c := range cards {
		if c.Scenario == ScenarioNightSpending {
			assert.Equal(t, "44", c.Payload["percent"])
		}
	}

	snap.Transactions = append(snap.Transactions, expenseTx("d2", "2026-10-19T09:00:00", 2000, "rent"))
	cards = p.Evaluate(newInsightInput(t, snap, ref, models.ToneFriend))
	assert.NotContains(t, scenarios(cards), ScenarioNightSpending)
}

func TestInsightCardIDsAreDeterministic(t *testing.T) {
	p := newDefaultInsightProcessor(t)
	snap := &models.Snapshot{Transactions: []models.Transaction{
		expenseTx("e1", "2026-10-10", 1000, "food"),
	}}
	ref := time.Date(2026, 10, 19, 9, 0, 0, 0, tashkent)

	a := p.Evaluate(newInsightInput(t, snap, ref, models.ToneFriend))
	b := p.Evaluate(newInsightInput(t, snap, ref.Add(3*time.Hour), models.ToneStrict))
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].ID, b[0].ID)
	assert.NotEqual(t, a[0].Body, b[0].Body)

	c := p.Evaluate(newInsightInput(t, snap, ref.AddDate(0, 0, 1), models.ToneFriend))
	require.Len(t, c, 1)
	assert.NotEqual(t, a[0].ID, c[0].ID)
}

func contains(list []string, s string) bool {
	return count(list, s) > 0
}

func count(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}
