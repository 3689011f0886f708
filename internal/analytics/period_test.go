package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCutoffHour(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{"default for NaN", math.NaN(), 3},
		{"default for +Inf", math.Inf(1), 3},
		{"default for -Inf", math.Inf(-1), 3},
		{"negative clamps to zero", -2, 0},
		{"above range clamps to 23", 25, 23},
		{"fraction is floored", 3.7, 3},
		{"zero stays zero", 0, 0},
		{"upper bound", 23, 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCutoffHour(tt.in))
		})
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodAll, p)

	p, err = ParsePeriod(" Week ")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, p)

	_, err = ParsePeriod("year")
	assert.Error(t, err)
}

func TestResolvePeriod_Today(t *testing.T) {
	r := ResolvePeriod(PeriodToday, 3, refNow, time.UTC)
	require.NotNil(t, r)
	assert.Equal(t, at(2025, 3, 15, 3, 0), r.Start)
	assert.Equal(t, refNow, r.End)
}

func TestResolvePeriod_TodayBeforeCutoffBelongsToPreviousDay(t *testing.T) {
	now := at(2025, 3, 15, 2, 0)
	r := ResolvePeriod(PeriodToday, 3, now, time.UTC)
	require.NotNil(t, r)
	assert.Equal(t, at(2025, 3, 14, 3, 0), r.Start)
}

func TestResolvePeriod_Week(t *testing.T) {
	r := ResolvePeriod(PeriodWeek, 3, refNow, time.UTC)
	require.NotNil(t, r)
	// the week starts on Sunday 2025-03-09 at the cutoff
	assert.Equal(t, at(2025, 3, 9, 3, 0), r.Start)
}

func TestResolvePeriod_Month(t *testing.T) {
	r := ResolvePeriod(PeriodMonth, 3, refNow, time.UTC)
	require.NotNil(t, r)
	assert.Equal(t, at(2025, 3, 1, 3, 0), r.Start)

	r = ResolvePeriod(PeriodMonth, 3, at(2025, 3, 1, 1, 0), time.UTC)
	require.NotNil(t, r)
	assert.Equal(t, at(2025, 2, 1, 3, 0), r.Start)
}

func TestResolvePeriod_AllIsUnbounded(t *testing.T) {
	assert.Nil(t, ResolvePeriod(PeriodAll, 3, refNow, time.UTC))
	assert.Nil(t, ResolvePeriod(Period("bogus"), 3, refNow, time.UTC))
}

func TestDateRange_Previous(t *testing.T) {
	r := DateRange{Start: at(2025, 3, 15, 3, 0), End: refNow}
	prev := r.Previous()
	assert.Equal(t, at(2025, 3, 14, 18, 0), prev.Start)
	assert.Equal(t, r.Start, prev.End)
}

func TestDateRange_ContainsIsHalfOpen(t *testing.T) {
	r := DateRange{Start: at(2025, 3, 15, 3, 0), End: refNow}
	assert.True(t, r.Contains(r.Start))
	assert.False(t, r.Contains(r.End))
	assert.False(t, r.Contains(r.Start.Add(-time.Second)))
}
