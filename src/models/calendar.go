// backend/src/models/calendar.go
package models

import (
	"encoding/json"
	"fmt"
)

// IndicatorStatus is the colour of one calendar status slot.
type IndicatorStatus string

const (
	IndicatorSuccess IndicatorStatus = "success"
	IndicatorWarning IndicatorStatus = "warning"
	IndicatorDanger  IndicatorStatus = "danger"
	IndicatorMuted   IndicatorStatus = "muted"
)

// CalendarEventType names one of the merged event streams.
type CalendarEventType string

const (
	EventTask    CalendarEventType = "task"
	EventHabit   CalendarEventType = "habit"
	EventGoal    CalendarEventType = "goal"
	EventFinance CalendarEventType = "finance"
)

// CalendarEntry is the per-day value of a CalendarIndex. It is either a
// StatusVector or an EventCounts; consumers branch with a type switch.
type CalendarEntry interface {
	calendarKind() string
}

// StatusVector holds the [tasks, budget, habits] indicators for a day without explicit events.
type StatusVector [3]IndicatorStatus

func (StatusVector) calendarKind() string { return "status" }

// EventCounts counts explicit events per stream for one day.
type EventCounts map[CalendarEventType]int

func (EventCounts) calendarKind() string { return "events" }

// Total returns the number of events across all streams.
func (e EventCounts) Total() int {
	n := 0
	for _, c := range e {
		n += c
	}
	return n
}

// CalendarIndex maps an ISO date (YYYY-MM-DD) to its entry.
type CalendarIndex map[string]CalendarEntry

type calendarEntryJSON struct {
	Kind   string      `json:"kind"`
	Status []string    `json:"status,omitempty"`
	Events EventCounts `json:"events,omitempty"`
}

// MarshalJSON writes every entry with an explicit kind discriminator.
func (c CalendarIndex) MarshalJSON() ([]byte, error) {
	out := make(map[string]calendarEntryJSON, len(c))
	for date, entry := range c {
		switch v := entry.(type) {
		case StatusVector:
			out[date] = calendarEntryJSON{Kind: v.calendarKind(), Status: []string{string(v[0]), string(v[1]), string(v[2])}}
		case EventCounts:
			out[date] = calendarEntryJSON{Kind: v.calendarKind(), Events: v}
		default:
			return nil, fmt.Errorf("calendar entry for %s has unsupported type %T", date, entry)
		}
	}
	return json.Marshal(out)
}
