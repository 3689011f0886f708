package analytics

import (
	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

// statusSet is the allow-list of statuses that count towards analytics
type statusSet map[models.OrderStatus]struct{}

func newStatusSet(statuses []models.OrderStatus) statusSet {
	set := make(statusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

func (s statusSet) has(status models.OrderStatus) bool {
	_, ok := s[status]
	return ok
}

// FilterOrders keeps orders whose status is allowed and whose creation time falls in r.
// A nil range disables date filtering.
func FilterOrders(orders []models.Order, statuses []models.OrderStatus, r *DateRange) []models.Order {
	return filterOrders(orders, newStatusSet(statuses), r)
}

func filterOrders(orders []models.Order, allowed statusSet, r *DateRange) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if !allowed.has(o.Status) {
			continue
		}
		if r != nil && !r.Contains(o.CreatedAt) {
			continue
		}
		out = append(out, o)
	}
	return out
}
