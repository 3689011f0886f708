package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Period is a semantic time window relative to now
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod validates a period tag. An empty string means PeriodAll.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodAll, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("invalid period %q (allowed: today, week, month, all)", s)
	}
}

// DateRange is the half-open interval [Start, End)
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether Start <= t < End
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Previous returns the range of equal length that ends where r starts
func (r DateRange) Previous() DateRange {
	return DateRange{
		Start: r.Start.Add(-r.End.Sub(r.Start)),
		End:   r.Start,
	}
}

// NormalizeCutoffHour floors h and clamps it to [0,23]; non-finite input gives the default.
func NormalizeCutoffHour(h float64) int {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return DefaultCutoffHour
	}
	v := int(math.Floor(h))
	if v < 0 {
		return 0
	}
	if v > 23 {
		return 23
	}
	return v
}

// businessTime moves t back by cutoff hours so that the business day lines up with the calendar day
func businessTime(t time.Time, cutoff int, loc *time.Location) time.Time {
	return t.In(loc).Add(-time.Duration(cutoff) * time.Hour)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Sunday that starts t's week
func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func atCutoff(day time.Time, cutoff int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), cutoff, 0, 0, 0, day.Location())
}

// ResolvePeriod maps a period to a concrete range ending at now.
// PeriodAll and unknown periods return nil, meaning no date filtering.
func ResolvePeriod(period Period, cutoff int, now time.Time, loc *time.Location) *DateRange {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	biz := businessTime(now, cutoff, loc)

	var day time.Time
	switch period {
	case PeriodToday:
		day = startOfDay(biz)
	case PeriodWeek:
		day = startOfWeek(biz)
	case PeriodMonth:
		day = startOfMonth(biz)
	default:
		return nil
	}

	return &DateRange{Start: atCutoff(day, cutoff), End: now}
}
