package handlers

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/leadforgehq/outreach-backend/internal/services"
)

// ProviderEventRequest is the normalized shape of a delivery provider
// webhook event
type ProviderEventRequest struct {
	ProviderMessageID string `json:"provider_message_id" binding:"required"`
	Event             string `json:"event" binding:"required"` // delivered, bounced, replied
}

type WebhookHandler struct {
	trackingService *services.TrackingService
}

func NewWebhookHandler(trackingService *services.TrackingService) *WebhookHandler {
	return &WebhookHandler{
		trackingService: trackingService,
	}
}

// HandleProviderEvent godoc
// @Summary Ingest a provider delivery event
// @Description Accepts delivered/bounced/replied events from the email provider and folds them into the message log
// @Tags webhooks
// @Accept json
// @Produce json
// @Param request body handlers.ProviderEventRequest true "Provider event"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /webhooks/email-events [post]
func (h *WebhookHandler) HandleProviderEvent(c *gin.Context) {
	if secret := os.Getenv("WEBHOOK_SECRET"); secret != "" {
		presented := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
			return
		}
	}

	var req ProviderEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if err := h.trackingService.ApplyProviderEvent(req.ProviderMessageID, req.Event); err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Unknown provider IDs are acked so the provider stops
		// retrying; there is nothing to correlate them with
		logrus.Warnf("Unmatched provider event %s for %s: %v", req.Event, req.ProviderMessageID, err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
