package analytics

import (
	"time"

	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

// refNow is Saturday 2025-03-15 12:00 UTC
var refNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func paidOrder(id string, total float64, createdAt time.Time) models.Order {
	return models.Order{
		ID:        id,
		Total:     total,
		Subtotal:  total,
		Status:    models.OrderStatusPaid,
		Customers: 1,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func withCustomer(o models.Order, customerID string) models.Order {
	o.CustomerID = customerID
	return o
}

func withTable(o models.Order, table, guests int) models.Order {
	o.TableNumber = table
	o.Customers = guests
	return o
}

func withItems(o models.Order, items ...models.OrderItem) models.Order {
	o.Items = items
	return o
}

func item(name string, price float64, qty int) models.OrderItem {
	return models.OrderItem{ID: name, Name: name, Price: price, Quantity: qty}
}

func testOptions(cutoff float64) *Options {
	return &Options{
		CutoffHour: CutoffAt(cutoff),
		Clock:      FixedClock(refNow),
		Location:   time.UTC,
	}
}
