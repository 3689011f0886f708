package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-pos-analytics/internal/clients"
	"github.com/niaga-platform/service-pos-analytics/internal/config"
	"github.com/niaga-platform/service-pos-analytics/internal/domain/upstream"
)

func TestNewOrderSource(t *testing.T) {
	limiter := upstream.NewRateLimiter(upstream.DefaultRateLimitConfig())

	supabase, err := NewOrderSource(&OrderSourceConfig{
		Kind:     config.SourceSupabase,
		Supabase: clients.SupabaseClientConfig{URL: "https://example.supabase.co", Key: "anon", Table: "orders"},
	}, limiter, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "supabase", supabase.Name())

	notion, err := NewOrderSource(&OrderSourceConfig{
		Kind:   config.SourceNotion,
		Notion: clients.NotionClientConfig{Token: "secret", DatabaseID: "db-1"},
	}, limiter, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "notion", notion.Name())
}

func TestNewOrderSource_Incomplete(t *testing.T) {
	_, err := NewOrderSource(&OrderSourceConfig{Kind: config.SourceSQL}, nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewOrderSource(&OrderSourceConfig{Kind: config.SourceSupabase}, nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewOrderSource(&OrderSourceConfig{Kind: config.SourceNotion}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestNewOrderSource_Unknown(t *testing.T) {
	_, err := NewOrderSource(&OrderSourceConfig{Kind: "csv"}, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrUnknownSource)
}
