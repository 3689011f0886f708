package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-pos-analytics/internal/analytics"
	"github.com/niaga-platform/service-pos-analytics/internal/services"
)

const (
	defaultTrendDays = 30
	maxTrendDays     = 366
)

// AnalyticsHandler serves the POS analytics endpoints
type AnalyticsHandler struct {
	snapshot *services.SnapshotService
	logger   *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(snapshot *services.SnapshotService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		snapshot: snapshot,
		logger:   logger,
	}
}

// parsePeriod reads the period query parameter, writing a 400 on failure
func parsePeriod(c *gin.Context) (analytics.Period, bool) {
	period, err := analytics.ParsePeriod(c.Query("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return period, true
}

// respond writes a query result or maps its error to a status code
func (h *AnalyticsHandler) respond(c *gin.Context, result any, err error) {
	if err != nil {
		if errors.Is(err, services.ErrSnapshotNotReady) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to compute analytics", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// periodQuery is the shape shared by every period-scoped endpoint
func periodQuery[T any](h *AnalyticsHandler, c *gin.Context, query func(context.Context, analytics.Period) (*services.QueryResult[T], error)) {
	period, ok := parsePeriod(c)
	if !ok {
		return
	}
	result, err := query(c.Request.Context(), period)
	h.respond(c, result, err)
}

// GetStats returns headline stats with change against the previous period
// @Summary Get basic stats
// @Tags Analytics
// @Param period query string false "today, week, month or all"
// @Success 200 {object} services.QueryResult[analytics.BasicStats]
// @Router /analytics/stats [get]
func (h *AnalyticsHandler) GetStats(c *gin.Context) {
	periodQuery(h, c, h.snapshot.BasicStats)
}

// GetTrends returns gap-filled revenue trends
// @Summary Get revenue trends
// @Tags Analytics
// @Param granularity query string false "hourly, daily, weekly or monthly"
// @Param days query int false "Window length in days (default 30)"
// @Param period query string false "today, week, month or all"
// @Success 200 {object} services.QueryResult[[]analytics.TrendData]
// @Router /analytics/trends [get]
func (h *AnalyticsHandler) GetTrends(c *gin.Context) {
	granularity, err := analytics.ParseGranularity(c.Query("granularity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	days := defaultTrendDays
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 0 || days > maxTrendDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer between 0 and 366"})
			return
		}
	}

	period, ok := parsePeriod(c)
	if !ok {
		return
	}

	result, err := h.snapshot.RevenueTrends(c.Request.Context(), granularity, days, period)
	h.respond(c, result, err)
}

// GetProducts returns product and category rankings
// @Summary Get product analysis
// @Tags Analytics
// @Param period query string false "today, week, month or all"
// @Router /analytics/products [get]
func (h *AnalyticsHandler) GetProducts(c *gin.Context) {
	periodQuery(h, c, h.snapshot.ProductAnalysis)
}

// GetSeating returns per-table performance
// @Summary Get seating analysis
// @Tags Analytics
// @Param period query string false "today, week, month or all"
// @Router /analytics/seating [get]
func (h *AnalyticsHandler) GetSeating(c *gin.Context) {
	periodQuery(h, c, h.snapshot.SeatingAnalysis)
}

// GetCustomers returns RFM segments and customer value
// @Summary Get customer analysis
// @Tags Analytics
// @Param period query string false "today, week, month or all"
// @Router /analytics/customers [get]
func (h *AnalyticsHandler) GetCustomers(c *gin.Context) {
	periodQuery(h, c, h.snapshot.CustomerAnalysis)
}

// GetTime returns hourly and weekday distributions
// @Summary Get time analysis
// @Tags Analytics
// @Param period query string false "today, week, month or all"
// @Router /analytics/time [get]
func (h *AnalyticsHandler) GetTime(c *gin.Context) {
	periodQuery(h, c, h.snapshot.TimeAnalysis)
}

// GetSnapshot describes the loaded order snapshot
// @Summary Get snapshot info
// @Tags Analytics
// @Router /analytics/snapshot [get]
func (h *AnalyticsHandler) GetSnapshot(c *gin.Context) {
	info, ready := h.snapshot.Info()
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": services.ErrSnapshotNotReady.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": info})
}

// Refresh reloads the snapshot from the order store
// @Summary Refresh snapshot
// @Tags Analytics
// @Success 200 {object} services.SnapshotInfo
// @Failure 502 {object} map[string]string
// @Router /analytics/refresh [post]
func (h *AnalyticsHandler) Refresh(c *gin.Context) {
	info, err := h.snapshot.Refresh(c.Request.Context(), "manual")
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": info})
}
