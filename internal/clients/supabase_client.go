package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-pos-analytics/internal/domain/upstream"
	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

const defaultSupabasePageSize = 1000

// SupabaseClient reads POS orders through the Supabase PostgREST API
type SupabaseClient struct {
	baseURL    string
	apiKey     string
	table      string
	pageSize   int
	httpClient *http.Client
	limiter    *upstream.RateLimiter
	logger     *zap.Logger
}

// SupabaseClientConfig configures a SupabaseClient
type SupabaseClientConfig struct {
	URL      string
	Key      string
	Table    string
	PageSize int
	Timeout  time.Duration
}

// NewSupabaseClient creates a new SupabaseClient
func NewSupabaseClient(cfg SupabaseClientConfig, limiter *upstream.RateLimiter, logger *zap.Logger) *SupabaseClient {
	if cfg.Table == "" {
		cfg.Table = "orders"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultSupabasePageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if limiter == nil {
		limiter = upstream.NewRateLimiter(upstream.DefaultRateLimitConfig())
	}
	return &SupabaseClient{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.Key,
		table:    cfg.Table,
		pageSize: cfg.PageSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Name identifies the client as an order source
func (c *SupabaseClient) Name() string {
	return string(upstream.SourceSupabase)
}

// FetchOrders pages through the orders table, oldest first
func (c *SupabaseClient) FetchOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	for from := 0; ; from += c.pageSize {
		records, err := c.fetchPage(ctx, from, from+c.pageSize-1)
		if err != nil {
			return nil, err
		}
		for i := range records {
			orders = append(orders, records[i].ToOrder())
		}
		if len(records) < c.pageSize {
			break
		}
	}

	c.logger.Debug("Fetched orders from Supabase", zap.String("table", c.table), zap.Int("count", len(orders)))
	return orders, nil
}

func (c *SupabaseClient) fetchPage(ctx context.Context, from, to int) ([]models.OrderRecord, error) {
	path := "/rest/v1/" + url.PathEscape(c.table)
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "created_at.asc,id.asc")

	if err := c.limiter.Wait(ctx, path); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Range-Unit", "items")
	req.Header.Set("Range", fmt.Sprintf("%d-%d", from, to))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request failed: %w: %w", upstream.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read supabase response: %w", err)
	}

	// 416 means the range starts past the last row
	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, upstream.NewAPIError(upstream.SourceSupabase, resp.StatusCode, body)
	}

	var records []models.OrderRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode supabase orders: %w", err)
	}
	return records, nil
}
