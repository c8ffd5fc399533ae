// backend/src/services/rate_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
)

const (
	DefaultECBBaseURL = "https://data-api.ecb.europa.eu/service/data/EXR"
	rateTableCacheKey = "rate-table"
	ecbLookbackDays   = 7
	ecbSource         = "ecb"
)

// ecbCurrencies are the supported codes the ECB publishes reference rates for.
var ecbCurrencies = []models.CurrencyCode{
	models.CurrencyUSD, models.CurrencyGBP, models.CurrencyTRY, models.CurrencyCNY,
}

// ecbResponse is the subset of the SDMX-JSON payload we read.
type ecbResponse struct {
	DataSets []struct {
		Series map[string]struct {
			Observations map[string][]*float64 `json:"observations"`
		} `json:"series"`
	} `json:"dataSets"`
}

type rateServiceImpl struct {
	store      SnapshotStore
	cache      *cache.Cache
	httpClient *http.Client
	ecbBaseURL string
}

// NewRateService creates a RateService that caches the stored table for ttl.
func NewRateService(store SnapshotStore, ttl time.Duration, httpClient *http.Client, ecbBaseURL string) RateService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if ecbBaseURL == "" {
		ecbBaseURL = DefaultECBBaseURL
	}
	return &rateServiceImpl{
		store:      store,
		cache:      cache.New(ttl, 2*ttl),
		httpClient: httpClient,
		ecbBaseURL: ecbBaseURL,
	}
}

func (s *rateServiceImpl) GetRateTable(ctx context.Context) (models.RateTable, error) {
	if cached, found := s.cache.Get(rateTableCacheKey); found {
		return cached.(models.RateTable), nil
	}
	table, err := s.store.RateTable(ctx)
	if err != nil {
		return models.RateTable{}, fmt.Errorf("%w: %v", ErrRatesUnavailable, err)
	}
	if len(table.Rates) == 0 && len(table.Pairs) == 0 {
		logger.L.Warn("Rate table is empty; cross-currency amounts will not be converted")
	}
	s.cache.Set(rateTableCacheKey, table, cache.DefaultExpiration)
	return table, nil
}

func (s *rateServiceImpl) Invalidate() {
	s.cache.Flush()
}

// RefreshFromECB fetches EUR reference rates and rebases them onto the USD pivot.
// Currencies the ECB does not publish keep their stored rates.
func (s *rateServiceImpl) RefreshFromECB(ctx context.Context, date time.Time) (models.RateTable, error) {
	perEUR := make(map[models.CurrencyCode]float64, len(ecbCurrencies))
	for _, code := range ecbCurrencies {
		rate, err := s.fetchECBRate(ctx, code, date)
		if err != nil {
			logger.L.Warn("ECB rate unavailable", "currency", code, "error", err)
			continue
		}
		perEUR[code] = rate
	}

	usdPerEUR, ok := perEUR[models.CurrencyUSD]
	if !ok || usdPerEUR <= 0 {
		return models.RateTable{}, fmt.Errorf("%w: no USD reference rate on or before %s", ErrRatesUnavailable, date.Format("2006-01-02"))
	}

	rebased := map[models.CurrencyCode]float64{models.CurrencyEUR: 1 / usdPerEUR}
	for code, rate := range perEUR {
		if code == models.PivotCurrency {
			continue
		}
		rebased[code] = rate / usdPerEUR
	}

	if err := s.store.SaveRates(ctx, rebased, ecbSource, time.Now()); err != nil {
		return models.RateTable{}, fmt.Errorf("failed to store ECB rates: %w", err)
	}
	s.Invalidate()
	logger.L.Info("Exchange rates refreshed from ECB", "currencies", len(rebased))
	return s.GetRateTable(ctx)
}

// fetchECBRate returns units of code per EUR from the latest observation in the
// look-back window ending at date (weekends and holidays have no fixing).
func (s *rateServiceImpl) fetchECBRate(ctx context.Context, code models.CurrencyCode, date time.Time) (float64, error) {
	start := date.AddDate(0, 0, -ecbLookbackDays).Format("2006-01-02")
	end := date.Format("2006-01-02")
	url := fmt.Sprintf("%s/D.%s.EUR.SP00.A?startPeriod=%s&endPeriod=%s&format=jsondata", s.ecbBaseURL, code, start, end)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ECB request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("no ECB observations between %s and %s", start, end)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("ECB API returned status %s", resp.Status)
	}

	var data ecbResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("failed to decode ECB response: %w", err)
	}
	return latestObservation(data)
}

// latestObservation picks the observation with the highest time index.
func latestObservation(data ecbResponse) (float64, error) {
	if len(data.DataSets) == 0 {
		return 0, fmt.Errorf("no dataSets in response")
	}
	bestIdx := -1
	var best float64
	for _, series := range data.DataSets[0].Series {
		for key, values := range series.Observations {
			idx, err := strconv.Atoi(key)
			if err != nil || len(values) == 0 || values[0] == nil || *values[0] <= 0 {
				continue
			}
			if idx > bestIdx {
				bestIdx, best = idx, *values[0]
			}
		}
	}
	if bestIdx < 0 {
		return 0, fmt.Errorf("observation value not found in the expected structure")
	}
	return best, nil
}
