package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-pos-analytics/internal/domain/upstream"
)

// Webhook headers
const (
	SignatureHeader = "X-Webhook-Signature"
	TimestampHeader = "X-Webhook-Timestamp"
)

const maxWebhookBody = 1 << 20

// RefreshRequester queues a snapshot refresh
type RefreshRequester interface {
	RequestRefresh(reason string) bool
}

// orderWebhookPayload is the subset of a database change webhook we log
type orderWebhookPayload struct {
	Type   string `json:"type"`
	Table  string `json:"table"`
	Record struct {
		ID string `json:"id"`
	} `json:"record"`
}

// WebhookHandler turns order store change notifications into snapshot refreshes
type WebhookHandler struct {
	refresher RefreshRequester
	signature *upstream.Signature
	now       func() time.Time
	logger    *zap.Logger
}

// NewWebhookHandler creates a webhook handler. An empty secret disables
// signature checks.
func NewWebhookHandler(refresher RefreshRequester, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		refresher: refresher,
		signature: upstream.NewSignature(secret),
		now:       time.Now,
		logger:    logger,
	}
}

// HandleOrderWebhook handles order change notifications
// @Summary Order change webhook
// @Tags Webhooks
// @Param X-Webhook-Signature header string false "hex HMAC-SHA256 of the body"
// @Param X-Webhook-Timestamp header int false "unix seconds included in the signature, required with a secret"
// @Success 202 {object} map[string]any
// @Router /webhooks/orders [post]
func (h *WebhookHandler) HandleOrderWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	if h.signature.Enabled() {
		timestamp, err := strconv.ParseInt(c.GetHeader(TimestampHeader), 10, 64)
		if err != nil || !upstream.ValidateTimestamp(timestamp, h.now().Unix()) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid webhook timestamp"})
			return
		}
		if !h.signature.Verify(timestamp, body, c.GetHeader(SignatureHeader)) {
			h.logger.Warn("Rejected webhook with invalid signature", zap.String("client_ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
			return
		}
	}

	var payload orderWebhookPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
			return
		}
	}

	queued := h.refresher.RequestRefresh("webhook")
	h.logger.Info("Received order webhook",
		zap.String("type", payload.Type),
		zap.String("table", payload.Table),
		zap.String("order_id", payload.Record.ID),
		zap.Bool("queued", queued),
	)

	c.JSON(http.StatusAccepted, gin.H{"accepted": true, "queued": queued})
}
