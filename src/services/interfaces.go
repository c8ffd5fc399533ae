// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/username/leora/backend/src/models"
)

// Define common service errors
var (
	ErrSnapshotLoad      = errors.New("snapshot load failed")
	ErrRatesUnavailable  = errors.New("exchange rates unavailable")
	ErrRemoteUnavailable = errors.New("remote insights unavailable")
	ErrRefreshThrottled  = errors.New("forced insight refresh throttled")
	ErrBucketMismatch    = errors.New("remote insights returned for another day")
)

// SnapshotStore is the read side of the external domain store plus the rate table it keeps.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (*models.Snapshot, error)
	// DataVersion changes whenever any collection changes.
	DataVersion(ctx context.Context) (int64, error)
	RateTable(ctx context.Context) (models.RateTable, error)
	SaveRates(ctx context.Context, rates map[models.CurrencyCode]float64, source string, at time.Time) error
}

// RateService serves the current rate table.
type RateService interface {
	GetRateTable(ctx context.Context) (models.RateTable, error)
	// RefreshFromECB pulls reference rates published on or before date and stores them.
	RefreshFromECB(ctx context.Context, date time.Time) (models.RateTable, error)
	Invalidate()
}

// MetricsService computes the derived metrics for a reference time, memoized per
// snapshot version and local day.
type MetricsService interface {
	GetAnalytics(ctx context.Context, ref time.Time) (models.AnalyticsSnapshot, error)
	GetProgress(ctx context.Context, ref time.Time) (models.ProgressData, error)
	GetBudgetHealth(ctx context.Context, ref time.Time) ([]models.BudgetView, error)
	GetCalendar(ctx context.Context, ref time.Time) (models.CalendarIndex, error)
	GetLocalInsights(ctx context.Context, ref time.Time) ([]models.InsightCard, error)
	Invalidate()
}

// DailyInsightsRequest is what the remote insight service receives.
type DailyInsightsRequest struct {
	Date              string                    `json:"date"`
	Tone              models.InsightTone        `json:"tone"`
	ReportingCurrency models.CurrencyCode       `json:"reporting_currency"`
	Analytics         *models.AnalyticsSnapshot `json:"analytics,omitempty"`
	Force             bool                      `json:"force"`
}

// DailyInsightsResponse is the sanitized remote answer for one day bucket.
type DailyInsightsResponse struct {
	Date  string               `json:"date"`
	Cards []models.InsightCard `json:"cards"`
}

// RemoteInsightClient fetches AI-generated cards for a day.
type RemoteInsightClient interface {
	FetchDailyInsights(ctx context.Context, req DailyInsightsRequest) (*DailyInsightsResponse, error)
}

// CachedInsights is a stored remote result for a day bucket.
type CachedInsights struct {
	Cards     []models.InsightCard `json:"cards"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// InsightCache keeps the last successful remote result per day bucket.
type InsightCache interface {
	Get(ctx context.Context, bucket string) (*CachedInsights, bool)
	Set(ctx context.Context, bucket string, entry CachedInsights)
}

// InsightRequestOptions tunes a daily insight request.
type InsightRequestOptions struct {
	Force bool
}

// InsightService merges remote and local insight cards for a day bucket.
type InsightService interface {
	RequestDailyInsights(ctx context.Context, ref time.Time, opts InsightRequestOptions) models.InsightFeed
}
