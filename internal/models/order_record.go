package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// OrderRecord is the database representation of an order in the pos_orders table
type OrderRecord struct {
	ID          string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TableNumber int            `gorm:"not null;default:0;index" json:"table_number"`
	Items       datatypes.JSON `gorm:"type:json" json:"items"`
	Total       float64        `gorm:"not null;default:0" json:"total"`
	Subtotal    float64        `gorm:"not null;default:0" json:"subtotal"`
	Status      string         `gorm:"type:varchar(20);not null;index" json:"status"`
	Customers   int            `gorm:"not null;default:0" json:"customers"`
	CustomerID  *string        `gorm:"type:varchar(64);index" json:"customer_id,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName returns the table name for OrderRecord
func (OrderRecord) TableName() string {
	return "pos_orders"
}

// ToOrder converts the record into the domain order.
// Unreadable item payloads yield an order without items.
func (r *OrderRecord) ToOrder() Order {
	order := Order{
		ID:          r.ID,
		TableNumber: r.TableNumber,
		Total:       r.Total,
		Subtotal:    r.Subtotal,
		Status:      OrderStatus(r.Status),
		Customers:   r.Customers,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.CustomerID != nil {
		order.CustomerID = *r.CustomerID
	}
	order.Items = DecodeItems(r.Items)
	return order
}

// DecodeItems reads a JSON array of line items. Stores that keep the array in a text
// column hand it over as a JSON string, which is unwrapped first. Anything unreadable
// yields nil.
func DecodeItems(raw []byte) []OrderItem {
	if len(raw) == 0 {
		return nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		raw = []byte(text)
	}
	var items []OrderItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// NewOrderRecord builds a record from a domain order
func NewOrderRecord(o Order) (*OrderRecord, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	rec := &OrderRecord{
		ID:          o.ID,
		TableNumber: o.TableNumber,
		Items:       datatypes.JSON(items),
		Total:       o.Total,
		Subtotal:    o.Subtotal,
		Status:      string(o.Status),
		Customers:   o.Customers,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.CustomerID != "" {
		id := o.CustomerID
		rec.CustomerID = &id
	}
	return rec, nil
}
