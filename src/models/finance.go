// backend/src/models/finance.go
package models

// AccountType classifies an account.
type AccountType string

const (
	AccountCash       AccountType = "cash"
	AccountCard       AccountType = "card"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountDebt       AccountType = "debt"
)

// Account is owned by the external store and read-only here.
type Account struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Currency       string      `json:"currency"`
	CurrentBalance float64     `json:"current_balance"`
	AccountType    AccountType `json:"account_type"`
	IsArchived     bool        `json:"is_archived"`
}

// TransactionType is one of income, expense, transfer or adjustment.
type TransactionType string

const (
	TransactionIncome     TransactionType = "income"
	TransactionExpense    TransactionType = "expense"
	TransactionTransfer   TransactionType = "transfer"
	TransactionAdjustment TransactionType = "adjustment"
)

// Transaction is immutable once created. Currency may be empty, in which case
// the owning account's currency applies.
type Transaction struct {
	ID         string          `json:"id"`
	Type       TransactionType `json:"type"`
	Amount     float64         `json:"amount"`
	Currency   string          `json:"currency,omitempty"`
	AccountID  string          `json:"account_id"`
	CategoryID string          `json:"category_id"`
	Date       string          `json:"date"` // ISO-8601, local time when no offset is given
	BudgetID   string          `json:"budget_id,omitempty"`
	GoalID     string          `json:"goal_id,omitempty"`
	DebtID     string          `json:"debt_id,omitempty"`
}

// Budget caps spending for a set of categories. A limit <= 0 marks a savings target.
type Budget struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	LimitAmount    float64  `json:"limit_amount"`
	SpentAmount    float64  `json:"spent_amount"`
	Currency       string   `json:"currency,omitempty"`
	CategoryIDs    []string `json:"category_ids"`
	AccountID      string   `json:"account_id,omitempty"`
	NotifyOnExceed bool     `json:"notify_on_exceed"`
}

// PercentUsed returns spent as a percentage of the limit, or 0 when the budget
// has no limit.
func (b Budget) PercentUsed() float64 {
	if b.LimitAmount <= 0 {
		return 0
	}
	return b.SpentAmount / b.LimitAmount * 100
}

// DebtDirection tells who owes whom.
type DebtDirection string

const (
	DebtOwedByMe DebtDirection = "owed_by_me"
	DebtOwedToMe DebtDirection = "owed_to_me"
)

// DebtStatus is the lifecycle state of a debt.
type DebtStatus string

const (
	DebtActive    DebtStatus = "active"
	DebtPaid      DebtStatus = "paid"
	DebtCancelled DebtStatus = "cancelled"
)

type Debt struct {
	ID                string        `json:"id"`
	PrincipalAmount   float64       `json:"principal_amount"`
	PrincipalCurrency string        `json:"principal_currency"`
	CounterpartyName  string        `json:"counterparty_name"`
	Direction         DebtDirection `json:"direction"`
	DueDate           string        `json:"due_date"`
	Status            DebtStatus    `json:"status"`
}

// IsOpen reports whether the debt still has to be settled.
func (d Debt) IsOpen() bool {
	return d.Status != DebtPaid && d.Status != DebtCancelled
}
