// backend/src/services/insight_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/utils"
	"golang.org/x/sync/singleflight"
)

type insightServiceImpl struct {
	metrics      MetricsService
	remote       RemoteInsightClient
	cache        InsightCache
	tone         models.InsightTone
	currency     models.CurrencyCode
	fetchTimeout time.Duration
	group        singleflight.Group
}

// NewInsightService creates an InsightService. remote may be nil, in which
// case only the local engine's cards are served.
func NewInsightService(metrics MetricsService, remote RemoteInsightClient, cache InsightCache, tone models.InsightTone, currency models.CurrencyCode, fetchTimeout time.Duration) InsightService {
	if cache == nil {
		cache = NewMemoryInsightCache()
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 8 * time.Second
	}
	return &insightServiceImpl{
		metrics:      metrics,
		remote:       remote,
		cache:        cache,
		tone:         tone,
		currency:     currency,
		fetchTimeout: fetchTimeout,
	}
}

// RequestDailyInsights returns the card list for ref's local day. Remote cards
// for the day fully replace the local ones; on failure the last good remote
// result for the same day is served as stale, else the local cards.
func (s *insightServiceImpl) RequestDailyInsights(ctx context.Context, ref time.Time, opts InsightRequestOptions) models.InsightFeed {
	log := logger.FromContext(ctx)
	bucket := utils.DateKey(utils.StartOfDay(ref))
	feed := models.InsightFeed{DayBucket: bucket, Source: models.InsightSourceLocal, Cards: []models.InsightCard{}}

	local, err := s.metrics.GetLocalInsights(ctx, ref)
	if err != nil {
		log.Error("Local insight evaluation failed", "bucket", bucket, "error", err)
		feed.Error = err.Error()
		local = []models.InsightCard{}
	}

	if s.remote == nil {
		feed.Cards = local
		return feed
	}

	if !opts.Force {
		if entry, ok := s.cache.Get(ctx, bucket); ok {
			return withRemote(feed, entry, local, false)
		}
	}

	entry, err := s.fetch(ctx, ref, bucket, opts.Force)
	if err != nil {
		log.Warn("Remote insights unavailable, falling back", "bucket", bucket, "force", opts.Force, "error", err)
		feed.Error = err.Error()
		if cached, ok := s.cache.Get(ctx, bucket); ok && len(cached.Cards) > 0 {
			return withRemote(feed, cached, local, true)
		}
		feed.Cards = local
		return feed
	}
	return withRemote(feed, entry, local, false)
}

func withRemote(feed models.InsightFeed, entry *CachedInsights, local []models.InsightCard, stale bool) models.InsightFeed {
	if len(entry.Cards) == 0 {
		feed.Cards = local
		return feed
	}
	feed.Source = models.InsightSourceRemote
	feed.Stale = stale
	feed.Cards = entry.Cards
	return feed
}

// fetch runs at most one remote request per bucket. The request itself is
// detached from ctx so one caller giving up does not fail the others; the
// caller still stops waiting when ctx is done.
func (s *insightServiceImpl) fetch(ctx context.Context, ref time.Time, bucket string, force bool) (*CachedInsights, error) {
	ch := s.group.DoChan(bucket, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		req := DailyInsightsRequest{Date: bucket, Tone: s.tone, ReportingCurrency: s.currency, Force: force}
		if analytics, err := s.metrics.GetAnalytics(fetchCtx, ref); err == nil {
			req.Analytics = &analytics
		}

		resp, err := s.remote.FetchDailyInsights(fetchCtx, req)
		if err != nil {
			return nil, err
		}
		if resp.Date != bucket {
			return nil, fmt.Errorf("%w: got %s, want %s", ErrBucketMismatch, resp.Date, bucket)
		}
		entry := CachedInsights{Cards: resp.Cards, FetchedAt: time.Now()}
		s.cache.Set(fetchCtx, bucket, entry)
		return &entry, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*CachedInsights), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, ctx.Err())
	}
}
