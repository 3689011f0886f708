package analytics

import (
	"math"
	"sort"

	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

// utilizationReferenceSlots is the number of hourly slots in a 30 day reference window.
// Utilization uses it whatever period was queried.
const utilizationReferenceSlots = 24 * 30

// UtilizationRate is orderCount over the reference slots, as a percentage capped at 100
func UtilizationRate(orderCount int) float64 {
	return math.Min(percentage(float64(orderCount), utilizationReferenceSlots), 100)
}

type tableAcc struct {
	number    int
	orders    int
	revenue   amount
	guests    int
	customers map[string]struct{}
}

// AnalyzeSeating aggregates orders per table number, highest revenue first
func AnalyzeSeating(orders []models.Order) SeatingAnalysis {
	index := make(map[int]*tableAcc)
	var total amount
	for _, o := range orders {
		t, ok := index[o.TableNumber]
		if !ok {
			t = &tableAcc{number: o.TableNumber, customers: make(map[string]struct{})}
			index[o.TableNumber] = t
		}
		t.orders++
		t.revenue.add(o.Total)
		t.guests += o.Customers
		if o.CustomerID != "" {
			t.customers[o.CustomerID] = struct{}{}
		}
		total.add(o.Total)
	}

	tables := make([]TableStat, 0, len(index))
	for _, t := range index {
		tables = append(tables, TableStat{
			TableNumber:       t.number,
			OrderCount:        t.orders,
			TotalRevenue:      t.revenue.float(),
			AverageOrderValue: t.revenue.per(t.orders),
			UniqueCustomers:   len(t.customers),
			TotalGuests:       t.guests,
			UtilizationRate:   UtilizationRate(t.orders),
		})
	}
	sort.SliceStable(tables, func(i, j int) bool {
		if tables[i].TotalRevenue != tables[j].TotalRevenue {
			return tables[i].TotalRevenue > tables[j].TotalRevenue
		}
		return tables[i].TableNumber < tables[j].TableNumber
	})

	totalRevenue := total.float()
	distribution := make([]RevenueShare, 0, len(tables))
	for _, t := range tables {
		distribution = append(distribution, RevenueShare{
			TableNumber: t.TableNumber,
			Revenue:     t.TotalRevenue,
			Percentage:  percentage(t.TotalRevenue, totalRevenue),
		})
	}

	return SeatingAnalysis{
		Tables:                 tables,
		RevenueDistribution:    distribution,
		TotalTables:            len(tables),
		AverageRevenuePerTable: total.per(len(tables)),
		BusiestTable:           busiestTable(tables),
	}
}

// busiestTable returns the table with the most orders, lowest number on ties
func busiestTable(tables []TableStat) *int {
	if len(tables) == 0 {
		return nil
	}
	best := tables[0]
	for _, t := range tables[1:] {
		if t.OrderCount > best.OrderCount ||
			(t.OrderCount == best.OrderCount && t.TableNumber < best.TableNumber) {
			best = t
		}
	}
	n := best.TableNumber
	return &n
}
