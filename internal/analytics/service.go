// Package analytics computes POS business analytics from an in-memory set of orders.
//
// Every query filters the orders by status and by a period resolved against a
// business-day cutoff hour, then aggregates the result. Nothing is cached between
// calls; a Service is not safe for concurrent use with UpdateData.
package analytics

import (
	"time"

	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

// Service owns an order snapshot and answers analytics queries about it
type Service struct {
	orders           []models.Order
	cutoff           int
	includedStatuses []models.OrderStatus
	allowed          statusSet
	clock            Clock
	loc              *time.Location
	locale           string
	clvMonths        int
}

// NewService creates a Service over orders. A nil opts uses DefaultOptions.
func NewService(orders []models.Order, opts *Options) *Service {
	o := opts.withDefaults()
	s := &Service{
		cutoff:           NormalizeCutoffHour(*o.CutoffHour),
		includedStatuses: o.IncludedStatuses,
		allowed:          newStatusSet(o.IncludedStatuses),
		clock:            o.Clock,
		loc:              o.Location,
		locale:           o.Locale,
		clvMonths:        o.CLVMonths,
	}
	s.UpdateData(orders)
	return s
}

// UpdateData replaces the order snapshot
func (s *Service) UpdateData(orders []models.Order) {
	s.orders = append(make([]models.Order, 0, len(orders)), orders...)
}

// OrderCount returns the size of the current snapshot
func (s *Service) OrderCount() int {
	return len(s.orders)
}

// CutoffHour returns the normalized business-day cutoff
func (s *Service) CutoffHour() int {
	return s.cutoff
}

// IncludedStatuses returns a copy of the status allow-list
func (s *Service) IncludedStatuses() []models.OrderStatus {
	return append([]models.OrderStatus(nil), s.includedStatuses...)
}

// Location returns the time zone business days are computed in
func (s *Service) Location() *time.Location {
	return s.loc
}

// Clock returns the clock queries are evaluated against
func (s *Service) Clock() Clock {
	return s.clock
}

// Range resolves period against the service clock and cutoff
func (s *Service) Range(period Period) *DateRange {
	return ResolvePeriod(period, s.cutoff, s.clock.Now(), s.loc)
}

// FilteredOrders returns the orders counted for period
func (s *Service) FilteredOrders(period Period) []models.Order {
	return filterOrders(s.orders, s.allowed, s.Range(period))
}

// GetBasicStats returns totals for period and their change against the previous period
func (s *Service) GetBasicStats(period Period) BasicStats {
	r := s.Range(period)
	current := SummarizeOrders(filterOrders(s.orders, s.allowed, r))

	var previous PeriodStats
	if r != nil {
		prev := r.Previous()
		previous = SummarizeOrders(filterOrders(s.orders, s.allowed, &prev))
	}

	return BasicStats{
		Period:   normalizePeriod(period),
		Current:  current,
		Previous: previous,
		Changes:  compareStats(current, previous),
	}
}

// GetRevenueTrends buckets the last days of period's orders by granularity
func (s *Service) GetRevenueTrends(granularity Granularity, days int, period Period) []TrendData {
	return BuildTrends(s.FilteredOrders(period), granularity, days, s.cutoff, s.clock.Now(), s.loc)
}

// GetProductAnalysis ranks products sold in period
func (s *Service) GetProductAnalysis(period Period) ProductAnalysis {
	return AnalyzeProducts(s.FilteredOrders(period))
}

// GetSeatingAnalysis ranks tables by revenue in period
func (s *Service) GetSeatingAnalysis(period Period) SeatingAnalysis {
	return AnalyzeSeating(s.FilteredOrders(period))
}

// GetCustomerAnalysis segments the customers who ordered in period
func (s *Service) GetCustomerAnalysis(period Period) CustomerAnalysis {
	return AnalyzeCustomers(s.FilteredOrders(period), s.clock.Now(), s.clvMonths, s.loc)
}

// GetTimeAnalysis distributes period's orders over hours and weekdays
func (s *Service) GetTimeAnalysis(period Period) TimeAnalysis {
	return AnalyzeTime(s.FilteredOrders(period), s.cutoff, s.loc, s.locale)
}

func normalizePeriod(p Period) Period {
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth:
		return p
	default:
		return PeriodAll
	}
}
