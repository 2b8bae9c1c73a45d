package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadforgehq/outreach-backend/internal/middleware"
	"github.com/leadforgehq/outreach-backend/internal/services"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// GetCampaignStats godoc
// @Summary Get campaign statistics
// @Description Per-campaign funnel: counts and open/click/reply/bounce rates over sent messages
// @Tags analytics
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.CampaignStats
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/stats [get]
func (h *AnalyticsHandler) GetCampaignStats(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	stats, err := h.analyticsService.CampaignStats(workspaceID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetOverview godoc
// @Summary Get workspace overview
// @Description Aggregated lead, campaign and message activity for the workspace
// @Tags analytics
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} services.WorkspaceOverview
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/analytics/overview [get]
func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	overview, err := h.analyticsService.Overview(workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build overview", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, overview)
}
