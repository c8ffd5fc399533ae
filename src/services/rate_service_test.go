package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/leora/backend/src/models"
)

func ecbPayload(values ...float64) string {
	var obs []string
	for i, v := range values {
		obs = append(obs, fmt.Sprintf(`"%d":[%g,0,0,null,null]`, i, v))
	}
	return `{"dataSets":[{"series":{"0:0:0:0:0":{"observations":{` + strings.Join(obs, ",") + `}}}}]}`
}

func TestRateService_GetRateTableIsCached(t *testing.T) {
	store := newFakeStore(&models.Snapshot{})
	svc := NewRateService(store, time.Hour, nil, "")

	for i := 0; i < 3; i++ {
		table, err := svc.GetRateTable(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 12500.0, table.Rates[models.CurrencyUZS])
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.rateReads))

	svc.Invalidate()
	_, err := svc.GetRateTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&store.rateReads))
}

func TestRateService_RefreshFromECB(t *testing.T) {
	perEUR := map[string][]float64{
		"USD": {1.08, 1.10},
		"GBP": {0.88},
		"TRY": {37.4},
	}
	var mu sync.Mutex
	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()
		for code, values := range perEUR {
			if strings.Contains(r.URL.Path, "D."+code+".EUR") {
				fmt.Fprint(w, ecbPayload(values...))
				return
			}
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	store := newFakeStore(&models.Snapshot{})
	svc := NewRateService(store, time.Hour, server.Client(), server.URL)

	table, err := svc.RefreshFromECB(context.Background(), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.InDelta(t, 1/1.10, store.saved[models.CurrencyEUR], 1e-9)
	assert.InDelta(t, 0.88/1.10, store.saved[models.CurrencyGBP], 1e-9)
	assert.InDelta(t, 37.4/1.10, store.saved[models.CurrencyTRY], 1e-9)
	assert.NotContains(t, store.saved, models.CurrencyUSD)
	assert.NotContains(t, store.saved, models.CurrencyCNY)

	// UZS is not published by the ECB and keeps its stored rate.
	assert.Equal(t, 12500.0, table.Rates[models.CurrencyUZS])
	assert.InDelta(t, 1/1.10, table.Rates[models.CurrencyEUR], 1e-9)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, requested)
	assert.Contains(t, requested[0], "startPeriod=2026-10-12&endPeriod=2026-10-19")
}

func TestRateService_RefreshFailsWithoutUSD(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	store := newFakeStore(&models.Snapshot{})
	svc := NewRateService(store, time.Hour, server.Client(), server.URL)

	_, err := svc.RefreshFromECB(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrRatesUnavailable)
	assert.Empty(t, store.saved)
}

func TestLatestObservation(t *testing.T) {
	var data ecbResponse
	require.NoError(t, json.Unmarshal([]byte(ecbPayload(1.05, 1.07, 1.06)), &data))
	got, err := latestObservation(data)
	require.NoError(t, err)
	assert.Equal(t, 1.06, got)

	var empty ecbResponse
	require.NoError(t, json.Unmarshal([]byte(`{"dataSets":[{"series":{}}]}`), &empty))
	_, err = latestObservation(empty)
	assert.Error(t, err)
}
