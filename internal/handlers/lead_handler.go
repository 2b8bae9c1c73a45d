package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadforgehq/outreach-backend/internal/middleware"
	"github.com/leadforgehq/outreach-backend/internal/models"
	"github.com/leadforgehq/outreach-backend/internal/services"
)

type LeadHandler struct {
	leadService *services.LeadService
}

func NewLeadHandler(leadService *services.LeadService) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
	}
}

// CreateLead godoc
// @Summary Create a lead manually
// @Description Add a single lead to the workspace. Duplicate emails are rejected.
// @Tags leads
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateLeadRequest true "Lead creation request"
// @Success 201 {object} models.Lead
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads [post]
func (h *LeadHandler) CreateLead(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	lead, err := h.leadService.CreateLead(workspaceID, &req)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lead", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, lead)
}

// ListLeads godoc
// @Summary List leads
// @Description List workspace leads with optional status and segment filters
// @Tags leads
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Filter by lead status"
// @Param segment_id query string false "Filter by segment"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads [get]
func (h *LeadHandler) ListLeads(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)
	page, pageSize := parsePagination(c)

	leads, total, err := h.leadService.ListLeads(
		workspaceID,
		c.Query("status"),
		c.Query("segment_id"),
		(page-1)*pageSize,
		pageSize,
	)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list leads", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leads":      leads,
		"pagination": paginationInfo(total, page, pageSize),
	})
}

// GetLead godoc
// @Summary Get a lead by ID
// @Description Get a specific lead by its ID
// @Tags leads
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} models.Lead
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/leads/{id} [get]
func (h *LeadHandler) GetLead(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	lead, err := h.leadService.GetLead(workspaceID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		return
	}

	c.JSON(http.StatusOK, lead)
}

// UpdateLead godoc
// @Summary Update a lead
// @Description Update a lead's attributes. Email is immutable.
// @Tags leads
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Lead ID"
// @Param request body models.UpdateLeadRequest true "Lead update request"
// @Success 200 {object} models.Lead
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/leads/{id} [put]
func (h *LeadHandler) UpdateLead(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	var req models.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	lead, err := h.leadService.UpdateLead(workspaceID, c.Param("id"), &req)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, lead)
}

// DeleteLead godoc
// @Summary Delete a lead
// @Description Delete a lead. Its sent messages are kept with the lead reference cleared.
// @Tags leads
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/leads/{id} [delete]
func (h *LeadHandler) DeleteLead(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	if err := h.leadService.DeleteLead(workspaceID, c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lead deleted successfully"})
}
