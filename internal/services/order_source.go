package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/niaga-platform/service-pos-analytics/internal/clients"
	"github.com/niaga-platform/service-pos-analytics/internal/config"
	"github.com/niaga-platform/service-pos-analytics/internal/domain/upstream"
	"github.com/niaga-platform/service-pos-analytics/internal/models"
	"github.com/niaga-platform/service-pos-analytics/internal/repository"
)

// ErrUnknownSource is returned for an unsupported SOURCE_KIND
var ErrUnknownSource = errors.New("unknown order source")

// OrderSource loads the full order set from an order store
type OrderSource interface {
	Name() string
	FetchOrders(ctx context.Context) ([]models.Order, error)
}

// OrderSourceConfig holds what the factory needs to build any source
type OrderSourceConfig struct {
	Kind     string
	DB       *gorm.DB
	Supabase clients.SupabaseClientConfig
	Notion   clients.NotionClientConfig
}

// NewOrderSource builds the source selected by cfg.Kind.
// The SQL source needs an open database; the remote sources share limiter.
func NewOrderSource(cfg *OrderSourceConfig, limiter *upstream.RateLimiter, logger *zap.Logger) (OrderSource, error) {
	switch cfg.Kind {
	case config.SourceSQL:
		if cfg.DB == nil {
			return nil, fmt.Errorf("sql order source requires a database connection")
		}
		return repository.NewOrderRepository(cfg.DB), nil
	case config.SourceSupabase:
		if cfg.Supabase.URL == "" {
			return nil, fmt.Errorf("supabase order source requires a URL")
		}
		return clients.NewSupabaseClient(cfg.Supabase, limiter, logger), nil
	case config.SourceNotion:
		if cfg.Notion.DatabaseID == "" {
			return nil, fmt.Errorf("notion order source requires a database id")
		}
		return clients.NewNotionClient(cfg.Notion, limiter, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Kind)
	}
}
