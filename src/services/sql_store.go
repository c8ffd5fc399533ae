package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/leora/backend/src/model"
	"github.com/username/leora/backend/src/models"
)

type sqlStore struct {
	db *sql.DB
}

// NewSQLStore adapts the SQLite tables to a SnapshotStore.
func NewSQLStore(db *sql.DB) SnapshotStore {
	return &sqlStore{db: db}
}

func (s *sqlStore) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	snap, err := model.LoadSnapshot(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotLoad, err)
	}
	return snap, nil
}

func (s *sqlStore) DataVersion(ctx context.Context) (int64, error) {
	return model.GetDataVersion(ctx, s.db)
}

func (s *sqlStore) RateTable(ctx context.Context) (models.RateTable, error) {
	return model.GetRateTable(s.db)
}

func (s *sqlStore) SaveRates(ctx context.Context, rates map[models.CurrencyCode]float64, source string, at time.Time) error {
	for code, rate := range rates {
		if err := model.UpsertCurrencyRate(s.db, model.CurrencyRate{Currency: code, Rate: rate, Source: source, UpdatedAt: at}); err != nil {
			return fmt.Errorf("failed to save rate for %s: %w", code, err)
		}
	}
	return nil
}
