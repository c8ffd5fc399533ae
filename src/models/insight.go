// backend/src/models/insight.go
package models

// InsightTone selects the wording register of a card.
type InsightTone string

const (
	ToneFriend InsightTone = "friend"
	TonePolite InsightTone = "polite"
	ToneStrict InsightTone = "strict"
)

// ParseTone maps a configured tone to a known value, defaulting to friend.
func ParseTone(s string) InsightTone {
	switch InsightTone(s) {
	case TonePolite, ToneStrict:
		return InsightTone(s)
	default:
		return ToneFriend
	}
}

// InsightAction is the call-to-action attached to a card.
type InsightAction struct {
	Label  string `json:"label"`
	Action string `json:"action"` // e.g. "open_debt", "add_transaction"
	Target string `json:"target,omitempty"`
}

// InsightCard is a ranked recommendation. Cards are never mutated after construction.
type InsightCard struct {
	ID        string            `json:"id"`
	Scenario  string            `json:"scenario,omitempty"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Tone      InsightTone       `json:"tone"`
	Category  string            `json:"category"`
	Priority  int               `json:"priority"`
	CreatedAt string            `json:"created_at"`
	CTA       InsightAction     `json:"cta"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// InsightSource tells where a card list came from.
type InsightSource string

const (
	InsightSourceRemote InsightSource = "remote"
	InsightSourceLocal  InsightSource = "local"
)

// InsightFeed is what the presentation layer receives for a day.
type InsightFeed struct {
	DayBucket string        `json:"day_bucket"`
	Source    InsightSource `json:"source"`
	Stale     bool          `json:"stale"`
	Error     string        `json:"error,omitempty"`
	Cards     []InsightCard `json:"cards"`
}
