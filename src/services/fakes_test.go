package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/processors"
)

var tashkent = time.FixedZone("UZT", 5*3600)

type fakeStore struct {
	mu        sync.Mutex
	snapshot  *models.Snapshot
	version   int64
	rates     models.RateTable
	saved     map[models.CurrencyCode]float64
	loads     int32
	rateReads int32
	loadErr   error
}

func (f *fakeStore) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	atomic.AddInt32(&f.loads, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	snap := *f.snapshot
	snap.Version = f.version
	return &snap, nil
}

func (f *fakeStore) DataVersion(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, nil
}

func (f *fakeStore) RateTable(ctx context.Context) (models.RateTable, error) {
	atomic.AddInt32(&f.rateReads, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rates, nil
}

func (f *fakeStore) SaveRates(ctx context.Context, rates map[models.CurrencyCode]float64, source string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = make(map[models.CurrencyCode]float64)
	}
	if f.rates.Rates == nil {
		f.rates.Rates = make(map[models.CurrencyCode]float64)
	}
	for code, r := range rates {
		f.saved[code] = r
		f.rates.Rates[code] = r
	}
	f.version++
	return nil
}

func (f *fakeStore) bump() {
	f.mu.Lock()
	f.version++
	f.mu.Unlock()
}

func newFakeStore(snap *models.Snapshot) *fakeStore {
	return &fakeStore{
		snapshot: snap,
		version:  1,
		rates: models.RateTable{Rates: map[models.CurrencyCode]float64{
			models.CurrencyUZS: 12500,
			models.CurrencyEUR: 0.9,
		}},
	}
}

type fakeRemote struct {
	calls int32
	fetch func(ctx context.Context, req DailyInsightsRequest) (*DailyInsightsResponse, error)
}

func (f *fakeRemote) FetchDailyInsights(ctx context.Context, req DailyInsightsRequest) (*DailyInsightsResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fetch(ctx, req)
}

func newTestMetrics(store *fakeStore) MetricsService {
	engine, err := processors.NewEngine("UZS", processors.DefaultScenarioRules(processors.DefaultRuleOptions()))
	if err != nil {
		panic(err)
	}
	rates := NewRateService(store, time.Hour, nil, "")
	return NewMetricsService(store, rates, engine, models.ToneFriend, time.Minute)
}

// quietSnapshot triggers exactly one local card (missing_activity) on 2026-10-19.
func quietSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Accounts: []models.Account{{ID: "acc", Currency: "UZS", CurrentBalance: 100000}},
		Transactions: []models.Transaction{
			{ID: "e1", Type: models.TransactionExpense, Amount: 20000, AccountID: "acc", CategoryID: "food", Date: "2026-10-14T12:00:00"},
		},
	}
}
