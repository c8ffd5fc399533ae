package model

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
)

// data_version moves on commits from other connections; total_changes()
// counts rows written through this one.
const dataVersionQuery = `SELECT (SELECT data_version FROM pragma_data_version), total_changes()`

func scanDataVersion(row *sql.Row) (int64, error) {
	var dataVersion, ownChanges int64
	if err := row.Scan(&dataVersion, &ownChanges); err != nil {
		return 0, fmt.Errorf("failed to read data version: %w", err)
	}
	return dataVersion<<32 | (ownChanges & 0xffffffff), nil
}

// GetDataVersion returns a value that changes whenever any collection is written.
func GetDataVersion(ctx context.Context, db *sql.DB) (int64, error) {
	return scanDataVersion(db.QueryRowContext(ctx, dataVersionQuery))
}

// LoadSnapshot reads every collection in one read transaction so the
// snapshot is consistent with the version stamped on it.
func LoadSnapshot(ctx context.Context, db *sql.DB) (*models.Snapshot, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot read: %w", err)
	}
	defer tx.Rollback()

	snap := &models.Snapshot{}
	loaders := []struct {
		name string
		load func(context.Context, *sql.Tx, *models.Snapshot) error
	}{
		{"accounts", loadAccounts},
		{"transactions", loadTransactions},
		{"budgets", loadBudgets},
		{"debts", loadDebts},
		{"tasks", loadTasks},
		{"habits", loadHabits},
		{"goals", loadGoals},
	}
	for _, l := range loaders {
		if err := l.load(ctx, tx, snap); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", l.name, err)
		}
	}

	if snap.Version, err = scanDataVersion(tx.QueryRowContext(ctx, dataVersionQuery)); err != nil {
		return nil, err
	}
	return snap, nil
}

func loadAccounts(ctx context.Context, tx *sql.Tx, snap *models.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, currency, current_balance, account_type, is_archived FROM accounts ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Account
		var accountType string
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.CurrentBalance, &accountType, &a.IsArchived); err != nil {
			return err
		}
		a.AccountType = models.AccountType(accountType)
		snap.Accounts = append(snap.Accounts, a)
	}
	return rows.Err()
}

func loadTransactions(ctx context.Context, tx *sql.Tx, snap *models.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, type, amount, currency, account_id, category_id, date, budget_id, goal_id, debt_id
		FROM transactions ORDER BY date, rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Transaction
		var txType string
		if err := rows.Scan(&t.ID, &txType, &t.Amount, &t.Currency, &t.AccountID, &t.CategoryID, &t.Date, &t.BudgetID, &t.GoalID, &t.DebtID); err != nil {
			return err
		}
		t.Type = models.TransactionType(txType)
		snap.Transactions = append(snap.Transactions, t)
	}
	return rows.Err()
}

func loadBudgets(ctx context.Context, tx *sql.Tx, snap *models.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, limit_amount, spent_amount, currency, category_ids, account_id, notify_on_exceed
		FROM budgets ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var b models.Budget
		var categoryJSON string
		if err := rows.Scan(&b.ID, &b.Name, &b.LimitAmount, &b.SpentAmount, &b.Currency, &categoryJSON, &b.AccountID, &b.NotifyOnExceed); err != nil {
			return err
		}
		if categoryJSON != "" {
			if err := json.Unmarshal([]byte(categoryJSON), &b.CategoryIDs); err != nil {
				logger.L.Warn("Ignoring malformed budget category list", "budgetID", b.ID, "error", err)
				b.CategoryIDs = nil
			}
		}
		snap.Budgets = append(snap.Budgets, b)
	}
	return rows.Err()
}

func loadDebts(ctx context.Context, tx *sql.Tx, snap *models.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, principal_amount, principal_currency, counterparty_name, direction, due_date, status
		FROM debts ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var d models.Debt
		var direction, status string
		if err := rows.Scan(&d.ID, &d.PrincipalAmount, &d.PrincipalCurrency, &d.CounterpartyName, &direction, &d.DueDate, &status); err != nil {
			return err
		}
		d.Direction = models.DebtDirection(direction)
		d.Status = models.DebtStatus(status)
		snap.Debts = append(snap.Debts, d)
	}
	return rows.Err()
}

func loadTasks(ctx context.Context, tx *sql.Tx, snap *models.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, title, due_date, completed FROM tasks ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.DueDate, &t.Completed); err != nil {
			return err
		}
		snap.Tasks = append(snap.Tasks, t)
	}
	return rows.Err()
}

func loadHabits(ctx context.Context, tx *sql.Tx, snap *models.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, created_at, archived FROM habits ORDER BY rowid`)
	if err != nil {
		return err
	}
	index := make(map[string]int)
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.Name, &h.CreatedAt, &h.Archived); err != nil {
			rows.Close()
			return err
		}
		h.CompletionHistory = make(map[string]models.HabitDayStatus)
		index[h.ID] = len(snap.Habits)
		snap.Habits = append(snap.Habits, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	completions, err := tx.QueryContext(ctx, `SELECT habit_id, date, status FROM habit_completions`)
	if err != nil {
		return err
	}
	defer completions.Close()
	for completions.Next() {
		var habitID, date, status string
		if err := completions.Scan(&habitID, &date, &status); err != nil {
			return err
		}
		if i, ok := index[habitID]; ok {
			snap.Habits[i].CompletionHistory[date] = models.HabitDayStatus(status)
		}
	}
	return completions.Err()
}

func loadGoals(ctx context.Context, tx *sql.Tx, snap *models.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, title, completed FROM goals ORDER BY rowid`)
	if err != nil {
		return err
	}
	index := make(map[string]int)
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(&g.ID, &g.Title, &g.Completed); err != nil {
			rows.Close()
			return err
		}
		index[g.ID] = len(snap.Goals)
		snap.Goals = append(snap.Goals, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	checkIns, err := tx.QueryContext(ctx, `SELECT goal_id, date FROM goal_checkins ORDER BY date`)
	if err != nil {
		return err
	}
	for checkIns.Next() {
		var goalID, date string
		if err := checkIns.Scan(&goalID, &date); err != nil {
			checkIns.Close()
			return err
		}
		if i, ok := index[goalID]; ok {
			snap.Goals[i].CheckIns = append(snap.Goals[i].CheckIns, date)
		}
	}
	checkIns.Close()
	if err := checkIns.Err(); err != nil {
		return err
	}

	milestones, err := tx.QueryContext(ctx, `SELECT goal_id, title, due_date FROM goal_milestones ORDER BY due_date`)
	if err != nil {
		return err
	}
	defer milestones.Close()
	for milestones.Next() {
		var goalID string
		var m models.GoalMilestone
		if err := milestones.Scan(&goalID, &m.Title, &m.DueDate); err != nil {
			return err
		}
		if i, ok := index[goalID]; ok {
			snap.Goals[i].Milestones = append(snap.Goals[i].Milestones, m)
		}
	}
	return milestones.Err()
}
