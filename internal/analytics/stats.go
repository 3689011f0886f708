package analytics

import "github.com/niaga-platform/service-pos-analytics/internal/models"

// SummarizeOrders computes the headline numbers for a set of orders
func SummarizeOrders(orders []models.Order) PeriodStats {
	var revenue amount
	guests := 0
	customers := make(map[string]struct{})
	for _, o := range orders {
		revenue.add(o.Total)
		guests += o.Customers
		if o.CustomerID != "" {
			customers[o.CustomerID] = struct{}{}
		}
	}
	return PeriodStats{
		TotalOrders:       len(orders),
		TotalRevenue:      revenue.float(),
		AverageOrderValue: revenue.per(len(orders)),
		TotalGuests:       guests,
		UniqueCustomers:   len(customers),
	}
}

// compareStats returns the percentage change of each metric from previous to current
func compareStats(current, previous PeriodStats) StatsChanges {
	return StatsChanges{
		Orders:            percentChange(float64(current.TotalOrders), float64(previous.TotalOrders)),
		Revenue:           percentChange(current.TotalRevenue, previous.TotalRevenue),
		AverageOrderValue: percentChange(current.AverageOrderValue, previous.AverageOrderValue),
		Guests:            percentChange(float64(current.TotalGuests), float64(previous.TotalGuests)),
		Customers:         percentChange(float64(current.UniqueCustomers), float64(previous.UniqueCustomers)),
	}
}
