package models

// Snapshot is the read-only set of domain records supplied by the external store.
// Version changes whenever any of the underlying collections change.
type Snapshot struct {
	Version      int64         `json:"version"`
	Accounts     []Account     `json:"accounts"`
	Transactions []Transaction `json:"transactions"`
	Budgets      []Budget      `json:"budgets"`
	Debts        []Debt        `json:"debts"`
	Tasks        []Task        `json:"tasks"`
	Habits       []Habit       `json:"habits"`
	Goals        []Goal        `json:"goals"`
}

// AccountCurrencies returns the account → currency lookup used to resolve
// transactions and budgets without an explicit currency.
func (s *Snapshot) AccountCurrencies() map[string]string {
	out := make(map[string]string, len(s.Accounts))
	for _, a := range s.Accounts {
		out[a.ID] = a.Currency
	}
	return out
}
