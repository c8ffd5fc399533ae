// backend/src/processors/insight_processor.go
package processors

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/utils"
)

// ErrInvalidRule reports a malformed scenario rule in a catalog.
var ErrInvalidRule = errors.New("invalid scenario rule")

// insightNamespace seeds the deterministic card IDs.
var insightNamespace = uuid.MustParse("6f1c2f0e-8f0a-4d5e-9b8e-3b1f6c2a7d41")

// InsightInput is everything a scenario rule may look at.
type InsightInput struct {
	SnapshotContext
	Analytics models.AnalyticsSnapshot
	Tone      models.InsightTone
	Currency  CurrencyProcessor
}

// ScenarioMatch carries the facts a rule detected. A rule may match several
// times (one per debt, budget, ...); Key tells the matches apart.
type ScenarioMatch struct {
	Key      string
	Percent  int
	Days     int
	Amount   float64
	Currency models.CurrencyCode
	Subject  string
	Target   string
}

// CardTemplate is the rendered text and action of a card.
type CardTemplate struct {
	Title   string
	Body    string
	CTA     models.InsightAction
	Payload map[string]string
}

// ScenarioRule is one declarative entry of the catalog. Detect is a pure
// predicate over the input; Render fills the card template for a match.
type ScenarioRule struct {
	Scenario string
	Priority int
	Category string
	Detect   func(in *InsightInput) []ScenarioMatch
	Render   func(m ScenarioMatch, tone models.InsightTone) CardTemplate
}

type insightProcessorImpl struct {
	rules []ScenarioRule
}

// NewInsightProcessor validates the catalog and keeps its declaration order,
// which is the tie-break between equal priorities.
func NewInsightProcessor(rules []ScenarioRule) (InsightProcessor, error) {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		switch {
		case r.Scenario == "":
			return nil, fmt.Errorf("%w: rule #%d has no scenario name", ErrInvalidRule, i)
		case r.Detect == nil || r.Render == nil:
			return nil, fmt.Errorf("%w: rule %q is missing Detect or Render", ErrInvalidRule, r.Scenario)
		case seen[r.Scenario]:
			return nil, fmt.Errorf("%w: duplicate scenario %q", ErrInvalidRule, r.Scenario)
		}
		seen[r.Scenario] = true
	}
	catalog := make([]ScenarioRule, len(rules))
	copy(catalog, rules)
	return &insightProcessorImpl{rules: catalog}, nil
}

func (p *insightProcessorImpl) Rules() []ScenarioRule {
	out := make([]ScenarioRule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Evaluate runs every rule and returns the cards by descending priority.
// Equal priorities keep catalog order, then match order within a rule.
func (p *insightProcessorImpl) Evaluate(in *InsightInput) []models.InsightCard {
	cards := []models.InsightCard{}
	for _, rule := range p.rules {
		cards = append(cards, p.evaluateRule(rule, in)...)
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Priority > cards[j].Priority
	})
	return cards
}

// evaluateRule isolates one rule: a panic drops that rule's cards only.
func (p *insightProcessorImpl) evaluateRule(rule ScenarioRule, in *InsightInput) (cards []models.InsightCard) {
	defer func() {
		if r := recover(); r != nil {
			logger.L.Error("Insight rule failed, skipping", "scenario", rule.Scenario, "panic", fmt.Sprint(r))
			cards = nil
		}
	}()

	for _, m := range rule.Detect(in) {
		tpl := rule.Render(m, in.Tone)
		cards = append(cards, newInsightCard(rule, m, tpl, in))
	}
	return cards
}

func newInsightCard(rule ScenarioRule, m ScenarioMatch, tpl CardTemplate, in *InsightInput) models.InsightCard {
	dayKey := utils.DateKey(in.Reference)
	id := uuid.NewSHA1(insightNamespace, []byte(rule.Scenario+"|"+dayKey+"|"+m.Key))

	var payload map[string]string
	if len(tpl.Payload) > 0 {
		payload = make(map[string]string, len(tpl.Payload))
		for k, v := range tpl.Payload {
			payload[k] = v
		}
	}

	return models.InsightCard{
		ID:        id.String(),
		Scenario:  rule.Scenario,
		Title:     tpl.Title,
		Body:      tpl.Body,
		Tone:      in.Tone,
		Category:  rule.Category,
		Priority:  rule.Priority,
		CreatedAt: in.Reference.Format(time.RFC3339),
		CTA:       tpl.CTA,
		Payload:   payload,
	}
}
