// backend/src/services/metrics_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/processors"
	"github.com/username/leora/backend/src/utils"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheExpiration = 5 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

type metricsServiceImpl struct {
	store  SnapshotStore
	rates  RateService
	engine *processors.Engine
	tone   models.InsightTone
	memo   *cache.Cache
	loads  singleflight.Group
}

// NewMetricsService creates a MetricsService whose outputs live in memory for ttl.
func NewMetricsService(store SnapshotStore, rates RateService, engine *processors.Engine, tone models.InsightTone, ttl time.Duration) MetricsService {
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	return &metricsServiceImpl{
		store:  store,
		rates:  rates,
		engine: engine,
		tone:   tone,
		memo:   cache.New(ttl, CacheCleanupInterval),
	}
}

// memoize returns the cached value for key or computes and stores it.
func memoize[T any](memo *cache.Cache, key string, compute func() T) T {
	if cached, found := memo.Get(key); found {
		if v, ok := cached.(T); ok {
			return v
		}
	}
	v := compute()
	memo.Set(key, v, cache.DefaultExpiration)
	return v
}

// snapshotContext resolves the current snapshot and rates for ref. The returned
// key identifies (snapshot version, local day) for memoized outputs.
func (s *metricsServiceImpl) snapshotContext(ctx context.Context, ref time.Time) (processors.SnapshotContext, string, error) {
	version, err := s.store.DataVersion(ctx)
	if err != nil {
		return processors.SnapshotContext{}, "", fmt.Errorf("%w: %v", ErrSnapshotLoad, err)
	}

	snapKey := fmt.Sprintf("snapshot:%d", version)
	var snap *models.Snapshot
	if cached, found := s.memo.Get(snapKey); found {
		snap = cached.(*models.Snapshot)
	} else {
		v, err, _ := s.loads.Do(snapKey, func() (interface{}, error) {
			loaded, err := s.store.LoadSnapshot(ctx)
			if err != nil {
				return nil, err
			}
			s.memo.Set(snapKey, loaded, cache.DefaultExpiration)
			return loaded, nil
		})
		if err != nil {
			return processors.SnapshotContext{}, "", err
		}
		snap = v.(*models.Snapshot)
	}

	rates, err := s.rates.GetRateTable(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Using empty rate table", "error", err)
		rates = models.RateTable{}
	}

	sc := processors.SnapshotContext{
		Snapshot:          snap,
		Reference:         ref,
		ReportingCurrency: s.engine.ReportingCurrency(),
		Rates:             rates,
	}
	return sc, fmt.Sprintf("%d:%s", version, utils.DateKey(ref)), nil
}

func (s *metricsServiceImpl) GetAnalytics(ctx context.Context, ref time.Time) (models.AnalyticsSnapshot, error) {
	sc, key, err := s.snapshotContext(ctx, ref)
	if err != nil {
		return models.AnalyticsSnapshot{}, err
	}
	return s.analytics(sc, key), nil
}

func (s *metricsServiceImpl) analytics(sc processors.SnapshotContext, key string) models.AnalyticsSnapshot {
	return memoize(s.memo, "analytics:"+key, func() models.AnalyticsSnapshot {
		return s.engine.Aggregation.Aggregate(sc)
	})
}

func (s *metricsServiceImpl) GetProgress(ctx context.Context, ref time.Time) (models.ProgressData, error) {
	sc, key, err := s.snapshotContext(ctx, ref)
	if err != nil {
		return models.ProgressData{}, err
	}
	return memoize(s.memo, "progress:"+key, func() models.ProgressData {
		return s.engine.Progress.Progress(sc)
	}), nil
}

func (s *metricsServiceImpl) GetBudgetHealth(ctx context.Context, ref time.Time) ([]models.BudgetView, error) {
	sc, key, err := s.snapshotContext(ctx, ref)
	if err != nil {
		return nil, err
	}
	return memoize(s.memo, "budgets:"+key, func() []models.BudgetView {
		return s.engine.Budgets.Views(sc)
	}), nil
}

func (s *metricsServiceImpl) GetCalendar(ctx context.Context, ref time.Time) (models.CalendarIndex, error) {
	sc, key, err := s.snapshotContext(ctx, ref)
	if err != nil {
		return nil, err
	}
	return memoize(s.memo, "calendar:"+key, func() models.CalendarIndex {
		return s.engine.Calendar.Build(sc)
	}), nil
}

func (s *metricsServiceImpl) GetLocalInsights(ctx context.Context, ref time.Time) ([]models.InsightCard, error) {
	sc, key, err := s.snapshotContext(ctx, ref)
	if err != nil {
		return nil, err
	}
	return memoize(s.memo, "insights:"+string(s.tone)+":"+key, func() []models.InsightCard {
		return s.engine.Insights.Evaluate(&processors.InsightInput{
			SnapshotContext: sc,
			Analytics:       s.analytics(sc, key),
			Tone:            s.tone,
			Currency:        s.engine.Currency,
		})
	}), nil
}

// Invalidate drops every memoized output and snapshot.
func (s *metricsServiceImpl) Invalidate() {
	s.memo.Flush()
	s.rates.Invalidate()
}
