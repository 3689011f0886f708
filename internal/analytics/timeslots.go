package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

// Supported label locales
const (
	LocaleEnglish            = "en"
	LocaleTraditionalChinese = "zh-TW"
)

const peakSlots = 3

var weekdayLabels = map[string][7]string{
	LocaleEnglish:            {"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	LocaleTraditionalChinese: {"週日", "週一", "週二", "週三", "週四", "週五", "週六"},
}

// WeekdayLabel returns the short weekday name for locale, falling back to English
func WeekdayLabel(day time.Weekday, locale string) string {
	labels, ok := weekdayLabels[locale]
	if !ok {
		labels = weekdayLabels[LocaleEnglish]
	}
	return labels[day]
}

func hourLabel(hour int, locale string) string {
	if locale == LocaleTraditionalChinese {
		return fmt.Sprintf("%d點", hour)
	}
	return fmt.Sprintf("%02d:00", hour)
}

type slotAcc struct {
	orders  int
	revenue amount
}

func (s slotAcc) slot(index int, label string) TimeSlot {
	return TimeSlot{
		Index:             index,
		Label:             label,
		OrderCount:        s.orders,
		Revenue:           s.revenue.float(),
		AverageOrderValue: s.revenue.per(s.orders),
	}
}

// AnalyzeTime distributes orders over hour of day and day of week in business time,
// so with a 03:00 cutoff an order at 01:30 on Saturday counts as Friday, hour 22.
func AnalyzeTime(orders []models.Order, cutoff int, loc *time.Location, locale string) TimeAnalysis {
	if loc == nil {
		loc = time.Local
	}
	var hours [24]slotAcc
	var days [7]slotAcc
	for _, o := range orders {
		t := businessTime(o.CreatedAt, cutoff, loc)
		hours[t.Hour()].orders++
		hours[t.Hour()].revenue.add(o.Total)
		days[t.Weekday()].orders++
		days[t.Weekday()].revenue.add(o.Total)
	}

	hourly := make([]TimeSlot, 0, 24)
	for h := range hours {
		hourly = append(hourly, hours[h].slot(h, hourLabel(h, locale)))
	}
	weekly := make([]TimeSlot, 0, 7)
	for d := range days {
		weekly = append(weekly, days[d].slot(d, WeekdayLabel(time.Weekday(d), locale)))
	}

	return TimeAnalysis{
		Hourly:    hourly,
		Weekly:    weekly,
		PeakHours: topByRevenue(hourly, peakSlots),
		PeakDays:  topByRevenue(weekly, peakSlots),
	}
}

// topByRevenue returns the n slots with the highest revenue, earliest slot first on ties
func topByRevenue(slots []TimeSlot, n int) []TimeSlot {
	ranked := append([]TimeSlot(nil), slots...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Revenue > ranked[j].Revenue
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
