package analytics

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

// CustomerSegment is a named RFM classification
type CustomerSegment string

const (
	SegmentChampions   CustomerSegment = "Champions"
	SegmentLoyal       CustomerSegment = "Loyal"
	SegmentPotential   CustomerSegment = "Potential"
	SegmentNew         CustomerSegment = "New"
	SegmentAtRisk      CustomerSegment = "At Risk"
	SegmentCannotLose  CustomerSegment = "Cannot Lose"
	SegmentHibernating CustomerSegment = "Hibernating"
	SegmentOthers      CustomerSegment = "Others"
)

// AllSegments lists every segment in decision-table order
var AllSegments = []CustomerSegment{
	SegmentChampions,
	SegmentLoyal,
	SegmentPotential,
	SegmentNew,
	SegmentAtRisk,
	SegmentCannotLose,
	SegmentHibernating,
	SegmentOthers,
}

type segmentRule struct {
	segment CustomerSegment
	match   func(r, f, m int) bool
}

// segmentRules is evaluated top to bottom; the first match wins
var segmentRules = []segmentRule{
	{SegmentChampions, func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{SegmentLoyal, func(r, f, m int) bool { return r >= 3 && f >= 3 && m >= 4 }},
	{SegmentPotential, func(r, f, m int) bool { return r >= 4 && f <= 2 && m >= 3 }},
	{SegmentNew, func(r, f, m int) bool { return r >= 4 && f >= 3 && m <= 2 }},
	{SegmentAtRisk, func(r, f, m int) bool { return r <= 2 && f >= 3 && m >= 3 }},
	{SegmentCannotLose, func(r, f, m int) bool { return r <= 2 && f <= 2 && m >= 4 }},
	{SegmentHibernating, func(r, f, m int) bool { return r >= 3 && f <= 2 && m <= 2 }},
}

// SegmentForScore classifies a three digit RFM score such as "541".
// Anything that is not three digits is Others.
func SegmentForScore(score string) CustomerSegment {
	if len(score) != 3 {
		return SegmentOthers
	}
	digits := make([]int, 3)
	for i := 0; i < 3; i++ {
		d, err := strconv.Atoi(score[i : i+1])
		if err != nil {
			return SegmentOthers
		}
		digits[i] = d
	}
	for _, rule := range segmentRules {
		if rule.match(digits[0], digits[1], digits[2]) {
			return rule.segment
		}
	}
	return SegmentOthers
}

// QuantileScore maps value to 1..5 by its percentile rank within population:
// the share of the population strictly below value, times five, rounded up.
// Ties share a score, the lowest values score 1 and a value above every member scores 5.
func QuantileScore(value float64, population []float64) int {
	if len(population) == 0 {
		return 1
	}
	sorted := append([]float64(nil), population...)
	sort.Float64s(sorted)
	return quantileScoreSorted(value, sorted)
}

func quantileScoreSorted(value float64, sorted []float64) int {
	n := len(sorted)
	if n == 0 {
		return 1
	}
	rank := sort.Search(n, func(i int) bool { return sorted[i] >= value })
	if rank == n {
		return 5
	}
	score := int(math.Ceil(float64(rank) / float64(n) * 5))
	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}

type customerOrders struct {
	id     string
	orders []models.Order
	first  time.Time
	last   time.Time
	spend  amount
}

// groupByCustomer groups orders by customer id, skipping anonymous orders.
// The result is sorted by customer id so that callers iterate deterministically.
func groupByCustomer(orders []models.Order) []*customerOrders {
	index := make(map[string]*customerOrders)
	for _, o := range orders {
		if o.CustomerID == "" {
			continue
		}
		c, ok := index[o.CustomerID]
		if !ok {
			c = &customerOrders{id: o.CustomerID, first: o.CreatedAt, last: o.CreatedAt}
			index[o.CustomerID] = c
		}
		c.orders = append(c.orders, o)
		c.spend.add(o.Total)
		if o.CreatedAt.Before(c.first) {
			c.first = o.CreatedAt
		}
		if o.CreatedAt.After(c.last) {
			c.last = o.CreatedAt
		}
	}

	out := make([]*customerOrders, 0, len(index))
	for _, c := range index {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func daysSince(t, now time.Time) int {
	d := int(now.Sub(t).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// CalculateRFM computes raw and scored RFM values for every identified customer
func CalculateRFM(orders []models.Order, now time.Time) []RFMAnalysis {
	return calculateRFM(groupByCustomer(orders), now)
}

func calculateRFM(customers []*customerOrders, now time.Time) []RFMAnalysis {
	out := make([]RFMAnalysis, 0, len(customers))
	recencies := make([]float64, 0, len(customers))
	frequencies := make([]float64, 0, len(customers))
	monetaries := make([]float64, 0, len(customers))

	for _, c := range customers {
		row := RFMAnalysis{
			CustomerID: c.id,
			Recency:    daysSince(c.last, now),
			Frequency:  len(c.orders),
			Monetary:   c.spend.float(),
		}
		out = append(out, row)
		recencies = append(recencies, float64(row.Recency))
		frequencies = append(frequencies, float64(row.Frequency))
		monetaries = append(monetaries, row.Monetary)
	}

	sort.Float64s(recencies)
	sort.Float64s(frequencies)
	sort.Float64s(monetaries)

	for i := range out {
		r := 6 - quantileScoreSorted(float64(out[i].Recency), recencies)
		f := quantileScoreSorted(float64(out[i].Frequency), frequencies)
		m := quantileScoreSorted(out[i].Monetary, monetaries)
		out[i].Score = strconv.Itoa(r) + strconv.Itoa(f) + strconv.Itoa(m)
	}
	return out
}

// LifetimeValue projects a customer's average monthly spend over months.
// Active months are the distinct calendar months the orders were created in.
func LifetimeValue(orders []models.Order, months int, loc *time.Location) float64 {
	if len(orders) == 0 || months <= 0 {
		return 0
	}
	if loc == nil {
		loc = time.Local
	}
	var spend amount
	active := make(map[string]struct{})
	for _, o := range orders {
		spend.add(o.Total)
		active[o.CreatedAt.In(loc).Format("2006-01")] = struct{}{}
	}
	monthly := spend.per(len(active))
	return toDecimal(monthly).Mul(toDecimal(float64(months))).InexactFloat64()
}
