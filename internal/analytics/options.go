package analytics

import (
	"time"

	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

// DefaultCutoffHour is the business day boundary used when none is configured
const DefaultCutoffHour = 3

// DefaultCLVMonths is the horizon used for customer lifetime value
const DefaultCLVMonths = 12

// DefaultIncludedStatuses are the statuses that count as revenue
var DefaultIncludedStatuses = []models.OrderStatus{
	models.OrderStatusCompleted,
	models.OrderStatusPaid,
}

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// CutoffAt returns a pointer for Options.CutoffHour
func CutoffAt(hour float64) *float64 {
	return &hour
}

// Options configures a Service
type Options struct {
	// CutoffHour is the hour a business day starts at. Nil, NaN or ±Inf fall back to 3.
	CutoffHour       *float64
	IncludedStatuses []models.OrderStatus
	Clock            Clock
	Location         *time.Location
	// Locale selects weekday and hour labels ("en" or "zh-TW").
	Locale    string
	CLVMonths int
}

// DefaultOptions returns the options used when NewService gets nil
func DefaultOptions() *Options {
	return &Options{
		CutoffHour:       CutoffAt(DefaultCutoffHour),
		IncludedStatuses: append([]models.OrderStatus(nil), DefaultIncludedStatuses...),
		Clock:            SystemClock,
		Location:         time.Local,
		Locale:           LocaleEnglish,
		CLVMonths:        DefaultCLVMonths,
	}
}

func (o *Options) withDefaults() Options {
	out := *DefaultOptions()
	if o == nil {
		return out
	}
	if o.CutoffHour != nil {
		out.CutoffHour = CutoffAt(*o.CutoffHour)
	}
	if len(o.IncludedStatuses) > 0 {
		out.IncludedStatuses = append([]models.OrderStatus(nil), o.IncludedStatuses...)
	}
	if o.Clock != nil {
		out.Clock = o.Clock
	}
	if o.Location != nil {
		out.Location = o.Location
	}
	if o.Locale != "" {
		out.Locale = o.Locale
	}
	if o.CLVMonths > 0 {
		out.CLVMonths = o.CLVMonths
	}
	return out
}
