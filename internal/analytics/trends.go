package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

// Granularity is the width of a trend bucket
type Granularity string

const (
	GranularityHourly  Granularity = "hourly"
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// ParseGranularity validates a bucket granularity. An empty string means daily.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GranularityDaily, nil
	case GranularityHourly, GranularityDaily, GranularityWeekly, GranularityMonthly:
		return g, nil
	default:
		return "", fmt.Errorf("invalid granularity %q (allowed: hourly, daily, weekly, monthly)", s)
	}
}

// bucketStart truncates a business-shifted time to the start of its bucket
func bucketStart(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityHourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case GranularityWeekly:
		return startOfWeek(t)
	case GranularityMonthly:
		return startOfMonth(t)
	default:
		return startOfDay(t)
	}
}

func nextBucket(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityHourly:
		return bucketStart(t.Add(time.Hour), g)
	case GranularityWeekly:
		return t.AddDate(0, 0, 7)
	case GranularityMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func bucketKey(t time.Time, g Granularity) string {
	switch g {
	case GranularityHourly:
		return t.Format("2006-01-02-15")
	case GranularityMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func bucketLabel(t time.Time, g Granularity) string {
	switch g {
	case GranularityHourly:
		return t.Format("01/02 15:00")
	case GranularityMonthly:
		return t.Format("2006/01")
	default:
		return t.Format("01/02")
	}
}

type trendBucket struct {
	orders    int
	revenue   amount
	customers map[string]struct{}
}

// BuildTrends buckets orders created within [now - days, now] and fills every empty
// bucket in that span with zeros. Orders are attributed to business time.
func BuildTrends(orders []models.Order, g Granularity, days, cutoff int, now time.Time, loc *time.Location) []TrendData {
	if loc == nil {
		loc = time.Local
	}
	if days < 0 {
		days = 0
	}
	now = now.In(loc)
	windowStart := now.AddDate(0, 0, -days)

	buckets := make(map[string]*trendBucket)
	for _, o := range orders {
		if o.CreatedAt.Before(windowStart) || o.CreatedAt.After(now) {
			continue
		}
		key := bucketKey(bucketStart(businessTime(o.CreatedAt, cutoff, loc), g), g)
		b, ok := buckets[key]
		if !ok {
			b = &trendBucket{customers: make(map[string]struct{})}
			buckets[key] = b
		}
		b.orders++
		b.revenue.add(o.Total)
		if o.CustomerID != "" {
			b.customers[o.CustomerID] = struct{}{}
		}
	}

	cursor := bucketStart(businessTime(windowStart, cutoff, loc), g)
	last := bucketStart(businessTime(now, cutoff, loc), g)

	var out []TrendData
	for !cursor.After(last) {
		key := bucketKey(cursor, g)
		point := TrendData{
			Period:        key,
			Date:          cursor.Format(time.RFC3339),
			FormattedDate: bucketLabel(cursor, g),
		}
		if b, ok := buckets[key]; ok {
			point.OrderCount = b.orders
			point.Revenue = b.revenue.float()
			point.AverageOrderValue = b.revenue.per(b.orders)
			point.CustomerCount = len(b.customers)
		}
		out = append(out, point)
		cursor = nextBucket(cursor, g)
	}
	return out
}
