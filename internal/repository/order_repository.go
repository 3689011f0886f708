package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

// OrderRepository reads POS orders from the pos_orders table
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Name identifies the repository as an order source
func (r *OrderRepository) Name() string {
	return "sql"
}

// AutoMigrate creates or updates the pos_orders table
func (r *OrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.OrderRecord{})
}

func (r *OrderRepository) listQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.OrderRecord{}).Order("created_at ASC").Order("id ASC")
}

// FetchOrders loads every order, oldest first
func (r *OrderRepository) FetchOrders(ctx context.Context) ([]models.Order, error) {
	var records []models.OrderRecord
	if err := r.listQuery(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	orders := make([]models.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].ToOrder())
	}
	return orders, nil
}

// Upsert inserts orders or overwrites the rows with the same id
func (r *OrderRepository) Upsert(ctx context.Context, orders ...models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	records := make([]*models.OrderRecord, 0, len(orders))
	for _, o := range orders {
		rec, err := models.NewOrderRecord(o)
		if err != nil {
			return fmt.Errorf("failed to encode order %s: %w", o.ID, err)
		}
		records = append(records, rec)
	}
	return r.upsertQuery(ctx).Create(&records).Error
}

func (r *OrderRepository) upsertQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	})
}
