package analytics

import (
	"sort"
	"time"

	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

const topCustomerCount = 10

// AnalyzeCustomers scores, segments and values every identified customer in orders
func AnalyzeCustomers(orders []models.Order, now time.Time, clvMonths int, loc *time.Location) CustomerAnalysis {
	if loc == nil {
		loc = time.Local
	}
	grouped := groupByCustomer(orders)
	rfm := calculateRFM(grouped, now)

	profiles := make([]CustomerProfile, 0, len(rfm))
	segmentCounts := make(map[CustomerSegment]int, len(AllSegments))
	segmentRevenue := make(map[CustomerSegment]*amount, len(AllSegments))
	var clvTotal amount
	newCustomers, returning := 0, 0

	for i, row := range rfm {
		c := grouped[i]
		segment := SegmentForScore(row.Score)
		clv := LifetimeValue(c.orders, clvMonths, loc)
		profiles = append(profiles, CustomerProfile{
			RFMAnalysis:   row,
			Segment:       segment,
			LifetimeValue: clv,
			FirstOrderAt:  c.first.In(loc).Format(time.RFC3339),
			LastOrderAt:   c.last.In(loc).Format(time.RFC3339),
		})

		segmentCounts[segment]++
		if segmentRevenue[segment] == nil {
			segmentRevenue[segment] = &amount{}
		}
		segmentRevenue[segment].add(row.Monetary)
		clvTotal.add(clv)

		if row.Frequency > 1 {
			returning++
		} else {
			newCustomers++
		}
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].Monetary != profiles[j].Monetary {
			return profiles[i].Monetary > profiles[j].Monetary
		}
		return profiles[i].CustomerID < profiles[j].CustomerID
	})

	total := len(profiles)
	segments := make([]SegmentSummary, 0, len(AllSegments))
	for _, s := range AllSegments {
		summary := SegmentSummary{
			Segment:    s,
			Count:      segmentCounts[s],
			Percentage: percentage(float64(segmentCounts[s]), float64(total)),
		}
		if rev := segmentRevenue[s]; rev != nil {
			summary.Revenue = rev.float()
		}
		segments = append(segments, summary)
	}

	top := profiles
	if len(top) > topCustomerCount {
		top = top[:topCustomerCount]
	}

	return CustomerAnalysis{
		TotalCustomers:     total,
		NewCustomers:       newCustomers,
		ReturningCustomers: returning,
		RetentionRate:      percentage(float64(returning), float64(total)),
		AverageCLV:         clvTotal.per(total),
		Segments:           segments,
		Customers:          profiles,
		TopCustomers:       append([]CustomerProfile(nil), top...),
	}
}
