package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadforgehq/outreach-backend/internal/middleware"
	"github.com/leadforgehq/outreach-backend/internal/models"
	"github.com/leadforgehq/outreach-backend/internal/services"
)

type SegmentHandler struct {
	segmentService *services.SegmentService
	leadService    *services.LeadService
}

func NewSegmentHandler(segmentService *services.SegmentService, leadService *services.LeadService) *SegmentHandler {
	return &SegmentHandler{
		segmentService: segmentService,
		leadService:    leadService,
	}
}

// CreateSegment godoc
// @Summary Create a segment
// @Description Create a named grouping of leads for campaign targeting
// @Tags segments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateSegmentRequest true "Segment creation request"
// @Success 201 {object} models.Segment
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/segments [post]
func (h *SegmentHandler) CreateSegment(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	var req models.CreateSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	segment, err := h.segmentService.CreateSegment(workspaceID, &req)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create segment", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, segment)
}

// ListSegments godoc
// @Summary List segments
// @Description List all workspace segments with their lead counts
// @Tags segments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.SegmentResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/segments [get]
func (h *SegmentHandler) ListSegments(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	segments, err := h.segmentService.ListSegments(workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list segments", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, segments)
}

// GetSegment godoc
// @Summary Get a segment by ID
// @Description Get a segment with its current lead count
// @Tags segments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Segment ID"
// @Success 200 {object} models.SegmentResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/segments/{id} [get]
func (h *SegmentHandler) GetSegment(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	segment, err := h.segmentService.GetSegment(workspaceID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Segment not found"})
		return
	}

	c.JSON(http.StatusOK, segment)
}

// UpdateSegment godoc
// @Summary Update a segment
// @Description Update a segment's name, description or color
// @Tags segments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Segment ID"
// @Param request body models.UpdateSegmentRequest true "Segment update request"
// @Success 200 {object} models.Segment
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/segments/{id} [put]
func (h *SegmentHandler) UpdateSegment(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	var req models.UpdateSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	segment, err := h.segmentService.UpdateSegment(workspaceID, c.Param("id"), &req)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, segment)
}

// ListSegmentLeads godoc
// @Summary List leads in a segment
// @Description List the leads belonging to a segment with pagination
// @Tags segments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Segment ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/segments/{id}/leads [get]
func (h *SegmentHandler) ListSegmentLeads(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)
	segmentID := c.Param("id")

	if _, err := h.segmentService.GetSegment(workspaceID, segmentID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Segment not found"})
		return
	}

	page, pageSize := parsePagination(c)
	leads, total, err := h.leadService.ListLeads(workspaceID, "", segmentID, (page-1)*pageSize, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list segment leads", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leads":      leads,
		"pagination": paginationInfo(total, page, pageSize),
	})
}

// DeleteSegment godoc
// @Summary Delete a segment
// @Description Delete a segment. Member leads stay in the workspace without a segment.
// @Tags segments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Segment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/segments/{id} [delete]
func (h *SegmentHandler) DeleteSegment(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	if err := h.segmentService.DeleteSegment(workspaceID, c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Segment deleted successfully"})
}
