package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-pos-analytics/internal/domain/upstream"
	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

const notionPageOne = `{
  "object": "list",
  "results": [
    {
      "id": "page-1",
      "created_time": "2025-03-15T11:00:00.000Z",
      "last_edited_time": "2025-03-15T11:30:00.000Z",
      "archived": false,
      "properties": {
        "Order ID": {"type": "title", "title": [{"plain_text": "ord-"}, {"plain_text": "001"}]},
        "Table": {"type": "number", "number": 7},
        "Items": {"type": "rich_text", "rich_text": [{"plain_text": "[{\"id\":\"i1\",\"name\":\"Mojito\",\"price\":280,\"quantity\":2}]"}]},
        "Total": {"type": "number", "number": 560},
        "Status": {"type": "select", "select": {"name": "Paid"}},
        "Guests": {"type": "number", "number": 2},
        "Customer ID": {"type": "rich_text", "rich_text": [{"plain_text": " cust-9 "}]},
        "Created At": {"type": "date", "date": {"start": "2025-03-15T01:30:00+08:00"}}
      }
    },
    {
      "id": "page-archived",
      "created_time": "2025-03-15T11:00:00.000Z",
      "last_edited_time": "2025-03-15T11:00:00.000Z",
      "archived": true,
      "properties": {}
    }
  ],
  "has_more": true,
  "next_cursor": "cursor-2"
}`

const notionPageTwo = `{
  "object": "list",
  "results": [
    {
      "id": "page-2",
      "created_time": "2025-03-15T12:00:00.000Z",
      "last_edited_time": "2025-03-15T12:05:00.000Z",
      "properties": {
        "Total": {"type": "formula", "formula": {"type": "number", "number": 90}},
        "Status": {"type": "status", "status": {"name": "completed"}},
        "Table": {"type": "rich_text", "rich_text": [{"plain_text": "3"}]}
      }
    }
  ],
  "has_more": false,
  "next_cursor": null
}`

func TestNotionClient_FetchOrders(t *testing.T) {
	var cursors []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/databases/db-1/query", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, notionVersion, r.Header.Get("Notion-Version"))

		var body notionQueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, notionPageSize, body.PageSize)
		cursors = append(cursors, body.StartCursor)

		if body.StartCursor == "" {
			fmt.Fprint(w, notionPageOne)
			return
		}
		fmt.Fprint(w, notionPageTwo)
	}))
	defer srv.Close()

	client := NewNotionClient(NotionClientConfig{BaseURL: srv.URL, Token: "secret", DatabaseID: "db-1"}, nil, zap.NewNop())
	orders, err := client.FetchOrders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "cursor-2"}, cursors)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "ord-001", first.ID)
	assert.Equal(t, 7, first.TableNumber)
	assert.Equal(t, 560.0, first.Total)
	assert.Equal(t, 560.0, first.Subtotal)
	assert.Equal(t, models.OrderStatusPaid, first.Status)
	assert.Equal(t, 2, first.Customers)
	assert.Equal(t, "cust-9", first.CustomerID)
	assert.True(t, first.CreatedAt.Equal(time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC)))
	assert.True(t, first.UpdatedAt.Equal(time.Date(2025, 3, 15, 11, 30, 0, 0, time.UTC)))
	require.Len(t, first.Items, 1)
	assert.Equal(t, models.OrderItem{ID: "i1", Name: "Mojito", Price: 280, Quantity: 2}, first.Items[0])

	second := orders[1]
	assert.Equal(t, "page-2", second.ID)
	assert.Equal(t, 90.0, second.Total)
	assert.Equal(t, 3, second.TableNumber)
	assert.Equal(t, models.OrderStatusCompleted, second.Status)
	assert.Empty(t, second.CustomerID)
	assert.True(t, second.CreatedAt.Equal(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)))
}

func TestNotionClient_CustomFieldMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"id":"p","created_time":"2025-03-15T12:00:00Z","last_edited_time":"2025-03-15T12:00:00Z",
			"properties":{"金額":{"type":"number","number":450},"桌號":{"type":"number","number":12}}}],"has_more":false}`)
	}))
	defer srv.Close()

	fields := NotionFieldMapping{Total: "金額", TableNumber: "桌號"}
	client := NewNotionClient(NotionClientConfig{BaseURL: srv.URL, DatabaseID: "db", Fields: &fields}, nil, zap.NewNop())
	orders, err := client.FetchOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 450.0, orders[0].Total)
	assert.Equal(t, 12, orders[0].TableNumber)
	assert.Equal(t, "p", orders[0].ID)
}

func TestNotionClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"object":"error","status":429,"code":"rate_limited","message":"slow down"}`)
	}))
	defer srv.Close()

	client := NewNotionClient(NotionClientConfig{BaseURL: srv.URL, DatabaseID: "db"}, nil, zap.NewNop())
	_, err := client.FetchOrders(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, upstream.ErrRateLimited))

	var apiErr *upstream.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsRetryable())
}

func TestNotionProperty_Number(t *testing.T) {
	n := 5.5
	assert.Equal(t, 5.5, notionProperty{Type: "number", Number: &n}.number())
	assert.Equal(t, 12.0, notionProperty{Type: "rich_text", RichText: []notionText{{PlainText: " 12 "}}}.number())
	assert.Zero(t, notionProperty{Type: "rich_text", RichText: []notionText{{PlainText: "n/a"}}}.number())
	assert.Zero(t, notionProperty{Type: "number"}.number())
}
