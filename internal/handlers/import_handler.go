package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leadforgehq/outreach-backend/internal/database/repository"
	"github.com/leadforgehq/outreach-backend/internal/middleware"
	"github.com/leadforgehq/outreach-backend/internal/models"
	"github.com/leadforgehq/outreach-backend/internal/services"
	"github.com/leadforgehq/outreach-backend/internal/services/excel"
)

type ImportHandler struct {
	importerService *services.ImporterService
	excelService    *excel.Service
	leadService     *services.LeadService
	batchRepo       *repository.ImportBatchRepository
	leadRepo        *repository.LeadRepository
}

func NewImportHandler(
	importerService *services.ImporterService,
	excelService *excel.Service,
	leadService *services.LeadService,
	batchRepo *repository.ImportBatchRepository,
	leadRepo *repository.LeadRepository,
) *ImportHandler {
	return &ImportHandler{
		importerService: importerService,
		excelService:    excelService,
		leadService:     leadService,
		batchRepo:       batchRepo,
		leadRepo:        leadRepo,
	}
}

// PreviewImport godoc
// @Summary Preview a CSV import
// @Description Detect the column mapping and return a data sample without writing anything
// @Tags imports
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.ImportPreviewRequest true "Preview request"
// @Success 200 {object} models.ImportPreviewResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/imports/preview [post]
func (h *ImportHandler) PreviewImport(c *gin.Context) {
	var req models.ImportPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	preview, err := h.importerService.Preview(req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, preview)
}

// ImportCSV godoc
// @Summary Import leads from CSV
// @Description Run a CSV import. Rows with an email already in the workspace update the existing lead.
// @Tags imports
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.ImportRequest true "Import request"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/imports/csv [post]
func (h *ImportHandler) ImportCSV(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	result, err := h.importerService.ImportCSV(workspaceID, &req)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ImportXLSX godoc
// @Summary Import leads from an Excel file
// @Description Upload an .xlsx file as multipart form data and import its first sheet
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "Excel file"
// @Param segment_id formData string false "Segment to assign imported leads to"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/imports/xlsx [post]
func (h *ImportHandler) ImportXLSX(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded", "details": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file", "details": err.Error()})
		return
	}
	defer file.Close()

	rows, err := h.excelService.ParseRows(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file", "details": err.Error()})
		return
	}

	var segmentID *string
	if sid := c.PostForm("segment_id"); sid != "" {
		segmentID = &sid
	}

	result, err := h.importerService.ImportRows(workspaceID, fileHeader.Filename, models.ImportSourceXLSX, rows, nil, segmentID)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListImportBatches godoc
// @Summary List import history
// @Description List the audit records of past import runs, newest first
// @Tags imports
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.ImportBatch
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/imports [get]
func (h *ImportHandler) ListImportBatches(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	batches, err := h.batchRepo.GetByWorkspace(workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list import batches", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, batches)
}

// GetImportBatch godoc
// @Summary Get an import batch
// @Description Get one import batch with its row errors
// @Tags imports
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Batch ID"
// @Success 200 {object} models.ImportBatch
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/imports/{id} [get]
func (h *ImportHandler) GetImportBatch(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	batch, err := h.batchRepo.GetByID(workspaceID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Import batch not found"})
		return
	}

	c.JSON(http.StatusOK, batch)
}

// ExportLeads godoc
// @Summary Export leads to Excel
// @Description Download the workspace leads as an .xlsx file, optionally filtered by segment
// @Tags imports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security ApiKeyAuth
// @Param segment_id query string false "Filter by segment"
// @Success 200 {file} binary
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads/export [get]
func (h *ImportHandler) ExportLeads(c *gin.Context) {
	workspaceID := middleware.WorkspaceID(c)

	leads, _, err := h.leadRepo.List(workspaceID, "", c.Query("segment_id"), 0, 100000)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leads", "details": err.Error()})
		return
	}

	f, err := h.excelService.ExportLeads(leads)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build Excel file", "details": err.Error()})
		return
	}

	fileName := fmt.Sprintf("leads-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file", "details": err.Error()})
	}
}
