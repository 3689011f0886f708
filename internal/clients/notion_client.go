package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-pos-analytics/internal/domain/upstream"
	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

const (
	notionVersion     = "2022-06-28"
	notionPageSize    = 100
	defaultNotionBase = "https://api.notion.com"
)

// NotionFieldMapping names the database property that holds each order field.
// Empty names are skipped; ID and CreatedAt then fall back to the page's own id
// and creation time.
type NotionFieldMapping struct {
	ID          string
	TableNumber string
	Items       string
	Total       string
	Subtotal    string
	Status      string
	Customers   string
	CustomerID  string
	CreatedAt   string
	UpdatedAt   string
}

// DefaultNotionFieldMapping matches the POS order database template
func DefaultNotionFieldMapping() NotionFieldMapping {
	return NotionFieldMapping{
		ID:          "Order ID",
		TableNumber: "Table",
		Items:       "Items",
		Total:       "Total",
		Subtotal:    "Subtotal",
		Status:      "Status",
		Customers:   "Guests",
		CustomerID:  "Customer ID",
		CreatedAt:   "Created At",
		UpdatedAt:   "Updated At",
	}
}

// NotionClient reads POS orders from a Notion database
type NotionClient struct {
	baseURL    string
	token      string
	databaseID string
	fields     NotionFieldMapping
	httpClient *http.Client
	limiter    *upstream.RateLimiter
	logger     *zap.Logger
}

// NotionClientConfig configures a NotionClient
type NotionClientConfig struct {
	BaseURL    string
	Token      string
	DatabaseID string
	Fields     *NotionFieldMapping
	Timeout    time.Duration
}

// NewNotionClient creates a new NotionClient
func NewNotionClient(cfg NotionClientConfig, limiter *upstream.RateLimiter, logger *zap.Logger) *NotionClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultNotionBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	fields := DefaultNotionFieldMapping()
	if cfg.Fields != nil {
		fields = *cfg.Fields
	}
	if limiter == nil {
		limiter = upstream.NewRateLimiter(upstream.DefaultRateLimitConfig())
	}
	return &NotionClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		fields:     fields,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Name identifies the client as an order source
func (c *NotionClient) Name() string {
	return string(upstream.SourceNotion)
}

type notionQueryRequest struct {
	PageSize    int          `json:"page_size"`
	StartCursor string       `json:"start_cursor,omitempty"`
	Sorts       []notionSort `json:"sorts,omitempty"`
}

type notionSort struct {
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"`
}

type notionQueryResponse struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor *string      `json:"next_cursor"`
}

type notionPage struct {
	ID             string                    `json:"id"`
	CreatedTime    time.Time                 `json:"created_time"`
	LastEditedTime time.Time                 `json:"last_edited_time"`
	Archived       bool                      `json:"archived"`
	Properties     map[string]notionProperty `json:"properties"`
}

type notionText struct {
	PlainText string `json:"plain_text"`
}

type notionOption struct {
	Name string `json:"name"`
}

type notionDate struct {
	Start string `json:"start"`
}

type notionFormula struct {
	Type   string   `json:"type"`
	String *string  `json:"string"`
	Number *float64 `json:"number"`
}

type notionProperty struct {
	Type           string         `json:"type"`
	Title          []notionText   `json:"title"`
	RichText       []notionText   `json:"rich_text"`
	Number         *float64       `json:"number"`
	Select         *notionOption  `json:"select"`
	Status         *notionOption  `json:"status"`
	Date           *notionDate    `json:"date"`
	Formula        *notionFormula `json:"formula"`
	CreatedTime    string         `json:"created_time"`
	LastEditedTime string         `json:"last_edited_time"`
}

func joinText(parts []notionText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

func (p notionProperty) text() string {
	switch p.Type {
	case "title":
		return joinText(p.Title)
	case "rich_text":
		return joinText(p.RichText)
	case "select":
		if p.Select != nil {
			return p.Select.Name
		}
	case "status":
		if p.Status != nil {
			return p.Status.Name
		}
	case "number":
		if p.Number != nil {
			return strconv.FormatFloat(*p.Number, 'f', -1, 64)
		}
	case "formula":
		if p.Formula != nil && p.Formula.String != nil {
			return *p.Formula.String
		}
	case "date":
		if p.Date != nil {
			return p.Date.Start
		}
	case "created_time":
		return p.CreatedTime
	case "last_edited_time":
		return p.LastEditedTime
	}
	return ""
}

func (p notionProperty) number() float64 {
	if p.Type == "number" && p.Number != nil {
		return *p.Number
	}
	if p.Type == "formula" && p.Formula != nil && p.Formula.Number != nil {
		return *p.Formula.Number
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(p.text()), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (p notionProperty) timestamp() (time.Time, bool) {
	s := p.text()
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FetchOrders pages through the order database, oldest first. Archived pages are skipped.
func (c *NotionClient) FetchOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	cursor := ""
	for {
		page, err := c.queryPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		for _, p := range page.Results {
			if p.Archived {
				continue
			}
			orders = append(orders, c.fields.toOrder(p))
		}
		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		cursor = *page.NextCursor
	}

	c.logger.Debug("Fetched orders from Notion", zap.String("database_id", c.databaseID), zap.Int("count", len(orders)))
	return orders, nil
}

func (c *NotionClient) queryPage(ctx context.Context, cursor string) (*notionQueryResponse, error) {
	path := fmt.Sprintf("/v1/databases/%s/query", c.databaseID)

	payload, err := json.Marshal(notionQueryRequest{
		PageSize:    notionPageSize,
		StartCursor: cursor,
		Sorts:       []notionSort{{Timestamp: "created_time", Direction: "ascending"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode notion query: %w", err)
	}

	if err := c.limiter.Wait(ctx, path); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion request failed: %w: %w", upstream.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read notion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstream.NewAPIError(upstream.SourceNotion, resp.StatusCode, body)
	}

	var result notionQueryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode notion response: %w", err)
	}
	return &result, nil
}

func (m NotionFieldMapping) prop(page notionPage, name string) (notionProperty, bool) {
	if name == "" {
		return notionProperty{}, false
	}
	p, ok := page.Properties[name]
	return p, ok
}

func (m NotionFieldMapping) text(page notionPage, name string) string {
	if p, ok := m.prop(page, name); ok {
		return strings.TrimSpace(p.text())
	}
	return ""
}

func (m NotionFieldMapping) number(page notionPage, name string) float64 {
	if p, ok := m.prop(page, name); ok {
		return p.number()
	}
	return 0
}

func (m NotionFieldMapping) timestamp(page notionPage, name string, fallback time.Time) time.Time {
	if p, ok := m.prop(page, name); ok {
		if t, ok := p.timestamp(); ok {
			return t
		}
	}
	return fallback
}

// toOrder maps a database page onto an order through the field table
func (m NotionFieldMapping) toOrder(page notionPage) models.Order {
	order := models.Order{
		ID:          m.text(page, m.ID),
		TableNumber: int(m.number(page, m.TableNumber)),
		Total:       m.number(page, m.Total),
		Subtotal:    m.number(page, m.Subtotal),
		Status:      models.OrderStatus(strings.ToLower(m.text(page, m.Status))),
		Customers:   int(m.number(page, m.Customers)),
		CustomerID:  m.text(page, m.CustomerID),
		CreatedAt:   m.timestamp(page, m.CreatedAt, page.CreatedTime),
		UpdatedAt:   m.timestamp(page, m.UpdatedAt, page.LastEditedTime),
	}
	if order.ID == "" {
		order.ID = page.ID
	}
	if raw := m.text(page, m.Items); raw != "" {
		order.Items = models.DecodeItems([]byte(raw))
	}
	if order.Subtotal == 0 {
		order.Subtotal = order.Total
	}
	return order
}
