package models

type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DueDate   string `json:"due_date,omitempty"`
	Completed bool   `json:"completed"`
}

// HabitDayStatus is the value stored in a habit's completion history.
type HabitDayStatus string

const (
	HabitDone   HabitDayStatus = "done"
	HabitMissed HabitDayStatus = "missed"
)

// Habit keeps a completion history keyed by ISO date (YYYY-MM-DD).
type Habit struct {
	ID                string                    `json:"id"`
	Name              string                    `json:"name"`
	CreatedAt         string                    `json:"created_at,omitempty"`
	Archived          bool                      `json:"archived"`
	CompletionHistory map[string]HabitDayStatus `json:"completion_history"`
}

type GoalMilestone struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
}

type Goal struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	CheckIns   []string        `json:"check_ins"`
	Milestones []GoalMilestone `json:"milestones"`
	Completed  bool            `json:"completed"`
}
