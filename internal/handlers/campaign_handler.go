package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadforgehq/outreach-backend/internal/middleware"
	"github.com/leadforgehq/outreach-backend/internal/models"
	"github.com/leadforgehq/outreach-backend/internal/services"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
}

func NewCampaignHandler(campaignService *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
	}
}

func respondCampaignError(c *gin.Context, err error) {
	var transitionErr *models.InvalidTransitionError
	switch {
	case services.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err.Error() == "campaign not found":
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Campaign operation failed", "details": err.Error()})
	}
}

// CreateCampaign godoc
// @Summary Create a campaign
// @Description Create a new draft campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateCampaignRequest true "Campaign creation request"
// @Success 201 {object} models.Campaign
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	var req models.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	campaign, err := h.campaignService.CreateCampaign(workspaceID, &req)
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// ListCampaigns godoc
// @Summary List campaigns
// @Description List all workspace campaigns, newest first
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Campaign
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	campaigns, err := h.campaignService.ListCampaigns(workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list campaigns", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// GetCampaign godoc
// @Summary Get a campaign by ID
// @Description Get a specific campaign by its ID
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.Campaign
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	campaign, err := h.campaignService.GetCampaign(workspaceID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// UpdateCampaign godoc
// @Summary Update a campaign
// @Description Update a draft campaign's configuration
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Param request body models.UpdateCampaignRequest true "Campaign update request"
// @Success 200 {object} models.Campaign
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [put]
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	var req models.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	campaign, err := h.campaignService.UpdateCampaign(workspaceID, c.Param("id"), &req)
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// GenerateContent godoc
// @Summary Generate campaign messages
// @Description Render one pending message per segment lead that has none yet. Idempotent.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.GenerateContentResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/generate [post]
func (h *CampaignHandler) GenerateContent(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	result, err := h.campaignService.GenerateContent(workspaceID, c.Param("id"))
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// LaunchCampaign godoc
// @Summary Launch a campaign
// @Description Move a draft campaign to running, or scheduled when a future send time is set
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.Campaign
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/launch [post]
func (h *CampaignHandler) LaunchCampaign(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	campaign, err := h.campaignService.Launch(workspaceID, c.Param("id"))
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// PauseCampaign godoc
// @Summary Pause a running campaign
// @Description Stop further sends. Messages already dispatched are unaffected.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.Campaign
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/pause [post]
func (h *CampaignHandler) PauseCampaign(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	campaign, err := h.campaignService.Pause(workspaceID, c.Param("id"))
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// ResumeCampaign godoc
// @Summary Resume a paused campaign
// @Description Re-enable sending for a paused campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.Campaign
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/resume [post]
func (h *CampaignHandler) ResumeCampaign(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	campaign, err := h.campaignService.Resume(workspaceID, c.Param("id"))
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// DuplicateCampaign godoc
// @Summary Duplicate a campaign
// @Description Create a new draft with the same configuration. Messages are not copied.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Success 201 {object} models.Campaign
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/duplicate [post]
func (h *CampaignHandler) DuplicateCampaign(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	campaign, err := h.campaignService.Duplicate(workspaceID, c.Param("id"))
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// PreviewCampaign godoc
// @Summary Preview campaign rendering
// @Description Render the campaign templates for one lead without persisting anything
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Param request body models.CampaignPreviewRequest false "Preview request"
// @Success 200 {object} models.CampaignPreviewResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/preview [post]
func (h *CampaignHandler) PreviewCampaign(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	var req models.CampaignPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	preview, err := h.campaignService.Preview(workspaceID, c.Param("id"), req.LeadID)
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// ListCampaignMessages godoc
// @Summary List campaign messages
// @Description List the materialized messages of a campaign with pagination
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/messages [get]
func (h *CampaignHandler) ListCampaignMessages(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)
	page, pageSize := parsePagination(c)

	messages, total, err := h.campaignService.ListMessages(workspaceID, c.Param("id"), (page-1)*pageSize, pageSize)
	if err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":   messages,
		"pagination": paginationInfo(total, page, pageSize),
	})
}

// DeleteCampaign godoc
// @Summary Delete a campaign
// @Description Delete a campaign and its messages. Running campaigns must be paused first.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	if err := h.campaignService.DeleteCampaign(workspaceID, c.Param("id")); err != nil {
		respondCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted successfully"})
}
