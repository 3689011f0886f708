package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-pos-analytics/internal/analytics"
	"github.com/niaga-platform/service-pos-analytics/internal/domain/upstream"
	"github.com/niaga-platform/service-pos-analytics/internal/events"
)

// ErrSnapshotNotReady is returned by queries before the first successful load
var ErrSnapshotNotReady = errors.New("analytics snapshot not loaded yet")

// rolloverCheckInterval is how often Run looks for a business day change
const rolloverCheckInterval = time.Minute

// SnapshotPublisher announces refreshed snapshots
type SnapshotPublisher interface {
	PublishSnapshotRefreshed(event *events.SnapshotRefreshedEvent) error
}

// SnapshotInfo describes the order snapshot currently loaded
type SnapshotInfo struct {
	ID         uuid.UUID `json:"id"`
	Source     string    `json:"source"`
	OrderCount int       `json:"order_count"`
	Reason     string    `json:"reason"`
	LoadedAt   time.Time `json:"loaded_at"`
	CutoffHour int       `json:"cutoff_hour"`
}

// QueryResult wraps an analytics result with where it came from
type QueryResult[T any] struct {
	Data        T            `json:"data"`
	FromCache   bool         `json:"from_cache"`
	BusinessDay string       `json:"business_day"`
	Snapshot    SnapshotInfo `json:"snapshot"`
}

// SnapshotConfig configures a SnapshotService
type SnapshotConfig struct {
	Options         *analytics.Options
	RetryPolicy     *upstream.RetryPolicy
	RefreshInterval time.Duration
}

// SnapshotService keeps an analytics.Service loaded with the latest orders from
// an OrderSource and serves queries against it. Refreshes replace the whole
// snapshot.
type SnapshotService struct {
	source    OrderSource
	cache     *AnalyticsCacheService
	publisher SnapshotPublisher
	executor  *upstream.Executor
	tracker   *analytics.BusinessDayTracker
	interval  time.Duration
	logger    *zap.Logger

	mu     sync.RWMutex
	engine *analytics.Service
	info   SnapshotInfo
	ready  bool

	refreshMu sync.Mutex
	requests  chan string
}

// NewSnapshotService creates a snapshot service. cache and publisher may be nil.
func NewSnapshotService(source OrderSource, cache *AnalyticsCacheService, publisher SnapshotPublisher, cfg SnapshotConfig, logger *zap.Logger) *SnapshotService {
	engine := analytics.NewService(nil, cfg.Options)
	return &SnapshotService{
		source:    source,
		cache:     cache,
		publisher: publisher,
		executor:  upstream.NewExecutor(cfg.RetryPolicy),
		tracker:   analytics.NewBusinessDayTracker(engine.Clock(), engine.CutoffHour(), engine.Location()),
		interval:  cfg.RefreshInterval,
		logger:    logger,
		engine:    engine,
		requests:  make(chan string, 1),
	}
}

// Info returns the loaded snapshot and whether one has been loaded
func (s *SnapshotService) Info() (SnapshotInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info, s.ready
}

// Refresh reloads every order from the source and swaps in the new snapshot.
// On failure the previous snapshot keeps serving.
func (s *SnapshotService) Refresh(ctx context.Context, reason string) (SnapshotInfo, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	var fetched int
	result := s.executor.Execute(ctx, func(ctx context.Context) error {
		orders, err := s.source.FetchOrders(ctx)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.engine.UpdateData(orders)
		s.mu.Unlock()
		fetched = len(orders)
		return nil
	})
	if err := result.Err(); err != nil {
		s.logger.Error("Failed to refresh analytics snapshot",
			zap.String("source", s.source.Name()),
			zap.String("reason", reason),
			zap.Int("attempts", result.Attempts),
			zap.Error(err),
		)
		return SnapshotInfo{}, fmt.Errorf("failed to refresh snapshot from %s: %w", s.source.Name(), err)
	}

	s.mu.Lock()
	s.info = SnapshotInfo{
		ID:         uuid.New(),
		Source:     s.source.Name(),
		OrderCount: fetched,
		Reason:     reason,
		LoadedAt:   time.Now().UTC(),
		CutoffHour: s.engine.CutoffHour(),
	}
	s.ready = true
	info := s.info
	s.mu.Unlock()

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate analytics cache after refresh", zap.Error(err))
	}

	if s.publisher != nil {
		event := &events.SnapshotRefreshedEvent{
			SnapshotID:  info.ID,
			Source:      info.Source,
			OrderCount:  info.OrderCount,
			Reason:      reason,
			BusinessDay: s.tracker.Current(),
			RefreshedAt: info.LoadedAt,
		}
		if err := s.publisher.PublishSnapshotRefreshed(event); err != nil {
			s.logger.Warn("Failed to publish snapshot refreshed event", zap.Error(err))
		}
	}

	s.logger.Info("Analytics snapshot refreshed",
		zap.String("snapshot_id", info.ID.String()),
		zap.String("source", info.Source),
		zap.Int("orders", info.OrderCount),
		zap.String("reason", reason),
		zap.Int("attempts", result.Attempts),
		zap.Duration("duration", time.Since(start)),
	)
	return info, nil
}

// RequestRefresh queues a refresh for Run without blocking. Requests arriving
// while one is already queued are merged into it.
func (s *SnapshotService) RequestRefresh(reason string) bool {
	select {
	case s.requests <- reason:
		return true
	default:
		return false
	}
}

// HandleOrderChanged queues a refresh for an order event
func (s *SnapshotService) HandleOrderChanged(event *events.OrderChangedEvent) error {
	s.RequestRefresh("order." + event.Action)
	return nil
}

// Run loads the first snapshot and then serves refresh requests, the periodic
// refresh and business day rollover until ctx is done.
func (s *SnapshotService) Run(ctx context.Context) {
	if _, err := s.Refresh(ctx, "startup"); err != nil {
		s.logger.Warn("Initial snapshot load failed, serving will wait for the next refresh", zap.Error(err))
	}
	s.tracker.Rolled()

	var periodic <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		periodic = ticker.C
	}
	rollover := time.NewTicker(rolloverCheckInterval)
	defer rollover.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Snapshot refresh loop stopped")
			return
		case reason := <-s.requests:
			_, _ = s.Refresh(ctx, reason)
		case <-periodic:
			_, _ = s.Refresh(ctx, "interval")
		case <-rollover.C:
			s.checkRollover(ctx)
		}
	}
}

// checkRollover drops cached results once the business day changes
func (s *SnapshotService) checkRollover(ctx context.Context) bool {
	if !s.tracker.Rolled() {
		return false
	}
	s.logger.Info("Business day rolled over", zap.String("business_day", s.tracker.Current()))
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate analytics cache on rollover", zap.Error(err))
	}
	return true
}

// cachedQuery serves a query from the cache when possible and computes it
// against the snapshot otherwise
func cachedQuery[T any](ctx context.Context, s *SnapshotService, name string, params []string, compute func(*analytics.Service) T) (*QueryResult[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, ErrSnapshotNotReady
	}

	day := s.tracker.Current()
	result := &QueryResult[T]{BusinessDay: day, Snapshot: s.info}
	key := CacheKey(s.info.ID.String(), day, name, params...)

	if s.cache.Get(ctx, key, &result.Data) {
		result.FromCache = true
		return result, nil
	}

	result.Data = compute(s.engine)
	_ = s.cache.Set(ctx, key, result.Data)
	return result, nil
}

// BasicStats returns headline stats for period
func (s *SnapshotService) BasicStats(ctx context.Context, period analytics.Period) (*QueryResult[analytics.BasicStats], error) {
	return cachedQuery(ctx, s, "stats", []string{string(period)}, func(e *analytics.Service) analytics.BasicStats {
		return e.GetBasicStats(period)
	})
}

// RevenueTrends returns gap-filled trend buckets
func (s *SnapshotService) RevenueTrends(ctx context.Context, granularity analytics.Granularity, days int, period analytics.Period) (*QueryResult[[]analytics.TrendData], error) {
	params := []string{string(granularity), strconv.Itoa(days), string(period)}
	return cachedQuery(ctx, s, "trends", params, func(e *analytics.Service) []analytics.TrendData {
		return e.GetRevenueTrends(granularity, days, period)
	})
}

// ProductAnalysis returns product and category rankings
func (s *SnapshotService) ProductAnalysis(ctx context.Context, period analytics.Period) (*QueryResult[analytics.ProductAnalysis], error) {
	return cachedQuery(ctx, s, "products", []string{string(period)}, func(e *analytics.Service) analytics.ProductAnalysis {
		return e.GetProductAnalysis(period)
	})
}

// SeatingAnalysis returns per-table performance
func (s *SnapshotService) SeatingAnalysis(ctx context.Context, period analytics.Period) (*QueryResult[analytics.SeatingAnalysis], error) {
	return cachedQuery(ctx, s, "seating", []string{string(period)}, func(e *analytics.Service) analytics.SeatingAnalysis {
		return e.GetSeatingAnalysis(period)
	})
}

// CustomerAnalysis returns RFM segments and customer value
func (s *SnapshotService) CustomerAnalysis(ctx context.Context, period analytics.Period) (*QueryResult[analytics.CustomerAnalysis], error) {
	return cachedQuery(ctx, s, "customers", []string{string(period)}, func(e *analytics.Service) analytics.CustomerAnalysis {
		return e.GetCustomerAnalysis(period)
	})
}

// TimeAnalysis returns hourly and weekday distributions
func (s *SnapshotService) TimeAnalysis(ctx context.Context, period analytics.Period) (*QueryResult[analytics.TimeAnalysis], error) {
	return cachedQuery(ctx, s, "time", []string{string(period)}, func(e *analytics.Service) analytics.TimeAnalysis {
		return e.GetTimeAnalysis(period)
	})
}

// Ready reports whether a snapshot has been loaded
func (s *SnapshotService) Ready() bool {
	_, ready := s.Info()
	return ready
}
