package model

import (
	"database/sql"
	"time"

	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
)

// CurrencyRate represents a row in the currency_rates table: units of
// Currency per one pivot-currency unit.
type CurrencyRate struct {
	Currency  models.CurrencyCode
	Rate      float64
	Source    string
	UpdatedAt time.Time
}

// GetRateTable loads every stored rate and direct pair into a RateTable.
// UpdatedAt is the most recent update across both tables.
func GetRateTable(db *sql.DB) (models.RateTable, error) {
	table := models.RateTable{
		Rates: make(map[models.CurrencyCode]float64),
		Pairs: make(map[string]float64),
	}
	var latest string

	rows, err := db.Query(`SELECT currency, rate, updated_at FROM currency_rates`)
	if err != nil {
		return table, err
	}
	defer rows.Close()
	for rows.Next() {
		var code, updated string
		var rate float64
		if err := rows.Scan(&code, &rate, &updated); err != nil {
			logger.L.Error("Error scanning currency rate row", "error", err)
			continue
		}
		table.Rates[models.CurrencyCode(code)] = rate
		if updated > latest {
			latest = updated
		}
	}
	if err := rows.Err(); err != nil {
		return table, err
	}

	pairRows, err := db.Query(`SELECT from_currency, to_currency, rate, updated_at FROM currency_pairs`)
	if err != nil {
		return table, err
	}
	defer pairRows.Close()
	for pairRows.Next() {
		var from, to, updated string
		var rate float64
		if err := pairRows.Scan(&from, &to, &rate, &updated); err != nil {
			logger.L.Error("Error scanning currency pair row", "error", err)
			continue
		}
		table.Pairs[models.PairKey(models.CurrencyCode(from), models.CurrencyCode(to))] = rate
		if updated > latest {
			latest = updated
		}
	}
	table.UpdatedAt = latest
	return table, pairRows.Err()
}

// UpsertCurrencyRate saves a pivot rate, replacing any previous value.
func UpsertCurrencyRate(db *sql.DB, rate CurrencyRate) error {
	if rate.UpdatedAt.IsZero() {
		rate.UpdatedAt = time.Now()
	}
	if rate.Source == "" {
		rate.Source = "manual"
	}
	query := `
        INSERT INTO currency_rates (currency, rate, source, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(currency) DO UPDATE SET
            rate = excluded.rate,
            source = excluded.source,
            updated_at = excluded.updated_at;
    `
	_, err := db.Exec(query, string(rate.Currency), rate.Rate, rate.Source, rate.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		logger.L.Error("Failed to upsert currency rate", "currency", rate.Currency, "error", err)
	}
	return err
}

// UpsertCurrencyPair saves a direct cross rate (amount_to = amount_from * rate).
func UpsertCurrencyPair(db *sql.DB, from, to models.CurrencyCode, rate float64) error {
	query := `
        INSERT INTO currency_pairs (from_currency, to_currency, rate, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(from_currency, to_currency) DO UPDATE SET
            rate = excluded.rate,
            updated_at = excluded.updated_at;
    `
	_, err := db.Exec(query, string(from), string(to), rate, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		logger.L.Error("Failed to upsert currency pair", "from", from, "to", to, "error", err)
	}
	return err
}
