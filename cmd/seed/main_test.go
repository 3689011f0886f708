package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoOrders(t *testing.T) {
	now := time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC)
	orders := demoOrders(rand.New(rand.NewSource(7)), now, 10, 20, 30)
	require.NotEmpty(t, orders)
	assert.LessOrEqual(t, len(orders), 200)

	ids := map[string]bool{}
	for _, o := range orders {
		assert.False(t, ids[o.ID], "duplicate id %s", o.ID)
		ids[o.ID] = true

		assert.False(t, o.CreatedAt.After(now))
		assert.True(t, o.Status.Valid())
		assert.NotEmpty(t, o.Items)

		var sum float64
		for _, it := range o.Items {
			sum += it.Price * float64(it.Quantity)
		}
		assert.InDelta(t, sum, o.Total, 1e-9)
	}
}

func TestDemoOrders_Deterministic(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	a := demoOrders(rand.New(rand.NewSource(1)), now, 5, 10, 0)
	b := demoOrders(rand.New(rand.NewSource(1)), now, 5, 10, 0)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Total, b[i].Total)
		assert.Equal(t, a[i].CreatedAt, b[i].CreatedAt)
		assert.Empty(t, a[i].CustomerID)
	}
}

func TestBatches(t *testing.T) {
	now := time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC)
	orders := demoOrders(rand.New(rand.NewSource(3)), now, 3, 10, 5)
	require.NotEmpty(t, orders)

	chunks := batches(orders, 7)
	total := 0
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 7)
		total += len(c)
	}
	assert.Equal(t, len(orders), total)

	assert.Len(t, batches(orders, 0), len(orders))
	assert.Len(t, batches(orders, -4), len(orders))
	assert.Empty(t, batches(nil, 5))
}
