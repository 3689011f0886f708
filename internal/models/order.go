package models

import "time"

// OrderStatus is the lifecycle state of a POS order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady,
		OrderStatusCompleted, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is a single line of an order
type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order is a POS order as produced by the order store.
// CustomerID is empty for walk-in guests.
type Order struct {
	ID          string      `json:"id"`
	TableNumber int         `json:"tableNumber"`
	Items       []OrderItem `json:"items"`
	Total       float64     `json:"total"`
	Subtotal    float64     `json:"subtotal"`
	Status      OrderStatus `json:"status"`
	Customers   int         `json:"customers"`
	CustomerID  string      `json:"customerId,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
