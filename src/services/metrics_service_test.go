package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/leora/backend/src/models"
)

func TestMetricsService_MemoizesPerVersionAndDay(t *testing.T) {
	store := newFakeStore(quietSnapshot())
	svc := newTestMetrics(store)
	ctx := context.Background()
	ref := time.Date(2026, 10, 19, 10, 0, 0, 0, tashkent)

	first, err := svc.GetAnalytics(ctx, ref)
	require.NoError(t, err)
	_, err = svc.GetProgress(ctx, ref)
	require.NoError(t, err)
	_, err = svc.GetCalendar(ctx, ref.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.loads), "one snapshot load per version")
	assert.Equal(t, 20000.0, first.Expense.Current)

	store.mu.Lock()
	store.snapshot.Transactions = append(store.snapshot.Transactions, models.Transaction{
		ID: "e2", Type: models.TransactionExpense, Amount: 5000, AccountID: "acc", Date: "2026-10-18T09:00:00",
	})
	store.mu.Unlock()

	// Same version: the memoized output is served.
	same, err := svc.GetAnalytics(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 20000.0, same.Expense.Current)

	store.bump()
	fresh, err := svc.GetAnalytics(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 25000.0, fresh.Expense.Current)
	assert.Equal(t, int32(2), atomic.LoadInt32(&store.loads))
}

func TestMetricsService_Invalidate(t *testing.T) {
	store := newFakeStore(quietSnapshot())
	svc := newTestMetrics(store)
	ctx := context.Background()
	ref := time.Date(2026, 10, 19, 10, 0, 0, 0, tashkent)

	_, err := svc.GetBudgetHealth(ctx, ref)
	require.NoError(t, err)
	svc.Invalidate()
	_, err = svc.GetBudgetHealth(ctx, ref)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&store.loads))
	assert.Equal(t, int32(2), atomic.LoadInt32(&store.rateReads))
}

func TestMetricsService_LocalInsights(t *testing.T) {
	svc := newTestMetrics(newFakeStore(quietSnapshot()))
	cards, err := svc.GetLocalInsights(context.Background(), time.Date(2026, 10, 19, 10, 0, 0, 0, tashkent))
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "missing_activity", cards[0].Scenario)
	assert.Equal(t, models.ToneFriend, cards[0].Tone)
}

func TestMetricsService_SnapshotLoadError(t *testing.T) {
	store := newFakeStore(quietSnapshot())
	store.loadErr = errors.New("disk on fire")
	svc := newTestMetrics(store)

	_, err := svc.GetProgress(context.Background(), time.Now())
	assert.Error(t, err)
}
