package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-pos-analytics/internal/analytics"
	"github.com/niaga-platform/service-pos-analytics/internal/domain/upstream"
	"github.com/niaga-platform/service-pos-analytics/internal/events"
	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

var refNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu     sync.Mutex
	orders []models.Order
	errs   []error
	calls  int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchOrders(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.orders, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingPublisher struct {
	events []*events.SnapshotRefreshedEvent
}

func (p *recordingPublisher) PublishSnapshotRefreshed(event *events.SnapshotRefreshedEvent) error {
	p.events = append(p.events, event)
	return nil
}

func sampleOrders() []models.Order {
	mk := func(id string, total float64, createdAt time.Time) models.Order {
		return models.Order{
			ID: id, Total: total, Subtotal: total, Status: models.OrderStatusPaid,
			TableNumber: 2, Customers: 2, CustomerID: "alice",
			Items:     []models.OrderItem{{ID: "negroni", Name: "Negroni", Price: total, Quantity: 1}},
			CreatedAt: createdAt, UpdatedAt: createdAt,
		}
	}
	return []models.Order{
		mk("o1", 100, refNow.Add(-2*time.Hour)),
		mk("o2", 200, refNow.Add(-time.Hour)),
	}
}

func newTestSnapshot(source OrderSource, publisher SnapshotPublisher, policy *upstream.RetryPolicy) *SnapshotService {
	cfg := SnapshotConfig{
		Options: &analytics.Options{
			CutoffHour: analytics.CutoffAt(3),
			Clock:      analytics.FixedClock(refNow),
			Location:   time.UTC,
		},
		RetryPolicy: policy,
	}
	return NewSnapshotService(source, NewAnalyticsCacheService(nil, 0, zap.NewNop()), publisher, cfg, zap.NewNop())
}

func TestSnapshotService_NotReadyBeforeFirstLoad(t *testing.T) {
	svc := newTestSnapshot(&fakeSource{}, nil, nil)

	_, ready := svc.Info()
	assert.False(t, ready)

	_, err := svc.BasicStats(context.Background(), analytics.PeriodToday)
	assert.ErrorIs(t, err, ErrSnapshotNotReady)
}

func TestSnapshotService_RefreshServesQueries(t *testing.T) {
	source := &fakeSource{orders: sampleOrders()}
	publisher := &recordingPublisher{}
	svc := newTestSnapshot(source, publisher, nil)

	info, err := svc.Refresh(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, "fake", info.Source)
	assert.Equal(t, 2, info.OrderCount)
	assert.Equal(t, 3, info.CutoffHour)

	stats, err := svc.BasicStats(context.Background(), analytics.PeriodToday)
	require.NoError(t, err)
	assert.False(t, stats.FromCache)
	assert.Equal(t, "2025-03-15", stats.BusinessDay)
	assert.Equal(t, info.ID, stats.Snapshot.ID)
	assert.Equal(t, 2, stats.Data.Current.TotalOrders)
	assert.InDelta(t, 300.0, stats.Data.Current.TotalRevenue, 1e-9)

	trends, err := svc.RevenueTrends(context.Background(), analytics.GranularityDaily, 7, analytics.PeriodAll)
	require.NoError(t, err)
	assert.Len(t, trends.Data, 8)

	products, err := svc.ProductAnalysis(context.Background(), analytics.PeriodAll)
	require.NoError(t, err)
	assert.InDelta(t, 300.0, products.Data.TotalRevenue, 1e-9)

	_, err = svc.SeatingAnalysis(context.Background(), analytics.PeriodAll)
	require.NoError(t, err)
	_, err = svc.CustomerAnalysis(context.Background(), analytics.PeriodAll)
	require.NoError(t, err)
	_, err = svc.TimeAnalysis(context.Background(), analytics.PeriodAll)
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, info.ID, publisher.events[0].SnapshotID)
	assert.Equal(t, "test", publisher.events[0].Reason)
	assert.Equal(t, "2025-03-15", publisher.events[0].BusinessDay)
}

func TestSnapshotService_FailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	source := &fakeSource{orders: sampleOrders()}
	svc := newTestSnapshot(source, nil, nil)

	first, err := svc.Refresh(context.Background(), "startup")
	require.NoError(t, err)

	source.errs = []error{errors.New("connection refused")}
	_, err = svc.Refresh(context.Background(), "interval")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fake")

	info, ready := svc.Info()
	assert.True(t, ready)
	assert.Equal(t, first.ID, info.ID)

	stats, err := svc.BasicStats(context.Background(), analytics.PeriodAll)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Data.Current.TotalOrders)
}

func TestSnapshotService_RetriesTransientFailures(t *testing.T) {
	source := &fakeSource{
		orders: sampleOrders(),
		errs:   []error{fmt.Errorf("supabase request failed: %w", upstream.ErrServiceUnavailable)},
	}
	policy := upstream.DefaultRetryPolicy().WithInitialDelay(time.Millisecond).WithJitter(0)
	svc := newTestSnapshot(source, nil, policy)

	_, err := svc.Refresh(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 2, source.callCount())
}

func TestSnapshotService_DoesNotRetryPermanentFailures(t *testing.T) {
	source := &fakeSource{errs: []error{upstream.NewAPIError(upstream.SourceSupabase, 401, []byte(`{"message":"bad key"}`))}}
	policy := upstream.DefaultRetryPolicy().WithInitialDelay(time.Millisecond)
	svc := newTestSnapshot(source, nil, policy)

	_, err := svc.Refresh(context.Background(), "test")
	assert.ErrorIs(t, err, upstream.ErrUnauthorized)
	assert.Equal(t, 1, source.callCount())
}

func TestSnapshotService_RequestRefreshCoalesces(t *testing.T) {
	svc := newTestSnapshot(&fakeSource{}, nil, nil)

	assert.True(t, svc.RequestRefresh("order.created"))
	assert.False(t, svc.RequestRefresh("order.updated"))

	require.NoError(t, svc.HandleOrderChanged(&events.OrderChangedEvent{OrderID: "o1", Action: "deleted"}))
	assert.Equal(t, "order.created", <-svc.requests)
}

func TestSnapshotService_HandleOrderChangedQueuesRefresh(t *testing.T) {
	svc := newTestSnapshot(&fakeSource{}, nil, nil)

	require.NoError(t, svc.HandleOrderChanged(&events.OrderChangedEvent{OrderID: "o1", Action: "updated"}))
	assert.Equal(t, "order.updated", <-svc.requests)
}

func TestSnapshotService_RunLoadsAndServesRequests(t *testing.T) {
	source := &fakeSource{orders: sampleOrders()}
	svc := newTestSnapshot(source, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, ready := svc.Info()
		return ready
	}, time.Second, 5*time.Millisecond)

	svc.RequestRefresh("webhook")
	assert.Eventually(t, func() bool { return source.callCount() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestSnapshotService_CheckRollover(t *testing.T) {
	var mu sync.Mutex
	now := refNow
	clock := analytics.ClockFunc(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})

	cfg := SnapshotConfig{Options: &analytics.Options{CutoffHour: analytics.CutoffAt(3), Clock: clock, Location: time.UTC}}
	svc := NewSnapshotService(&fakeSource{}, NewAnalyticsCacheService(nil, 0, zap.NewNop()), nil, cfg, zap.NewNop())

	assert.False(t, svc.checkRollover(context.Background()))

	mu.Lock()
	now = time.Date(2025, 3, 16, 2, 59, 0, 0, time.UTC)
	mu.Unlock()
	assert.False(t, svc.checkRollover(context.Background()))

	mu.Lock()
	now = time.Date(2025, 3, 16, 3, 0, 0, 0, time.UTC)
	mu.Unlock()
	assert.True(t, svc.checkRollover(context.Background()))
	assert.False(t, svc.checkRollover(context.Background()))
}
