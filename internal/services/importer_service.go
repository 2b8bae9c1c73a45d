package services

import (
	"encoding/csv"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/leadforgehq/outreach-backend/internal/metrics"
	"github.com/leadforgehq/outreach-backend/internal/models"
)

// Importable lead fields, in column-detection priority order. More
// specific keyword families come first so a header like "Company Name"
// lands on company, not name.
var detectionOrder = []string{
	"email",
	"linkedin_url",
	"company",
	"position",
	"industry",
	"phone",
	"location",
	"website",
	"name",
}

// fieldKeywords maps each importable field to the keyword family that
// claims a header cell. Matching is substring-based on the normalized
// (trimmed, lowercased) header.
var fieldKeywords = map[string][]string{
	"name":         {"name"},
	"email":        {"email", "e-mail"},
	"company":      {"company", "organization", "organisation"},
	"position":     {"title", "position", "job"},
	"industry":     {"industry"},
	"phone":        {"phone"},
	"website":      {"website", "url"},
	"linkedin_url": {"linkedin"},
	"location":     {"location", "city"},
}

// DefaultRequiredFields is the mapping-validation set for the unified
// import contract. Callers with a different policy (e.g. a context
// that also requires company) pass their own set to NewImporterService.
var DefaultRequiredFields = []string{"name", "email"}

type leadUpserter interface {
	Upsert(lead *models.Lead) error
}

type importBatchWriter interface {
	Create(batch *models.ImportBatch) error
}

type segmentReader interface {
	GetByID(workspaceID, id string) (*models.Segment, error)
}

// ImporterService ingests tabular lead data: it detects a column
// mapping, validates it, upserts one lead per data row keyed on
// (workspace, email) and records an ImportBatch audit row per run.
type ImporterService struct {
	leadRepo       leadUpserter
	batchRepo      importBatchWriter
	segmentRepo    segmentReader
	requiredFields []string
}

func NewImporterService(leadRepo leadUpserter, batchRepo importBatchWriter, segmentRepo segmentReader, requiredFields []string) *ImporterService {
	if len(requiredFields) == 0 {
		requiredFields = DefaultRequiredFields
	}
	return &ImporterService{
		leadRepo:       leadRepo,
		batchRepo:      batchRepo,
		segmentRepo:    segmentRepo,
		requiredFields: requiredFields,
	}
}

// DetectColumns suggests a field -> column-index mapping from a header
// row. First match wins and a field claims at most one column. The
// result is a heuristic default the caller may override.
func DetectColumns(headers []string) map[string]int {
	mapping := make(map[string]int)
	for col, header := range headers {
		normalized := strings.ToLower(strings.TrimSpace(header))
		if normalized == "" {
			continue
		}
		for _, field := range detectionOrder {
			if _, taken := mapping[field]; taken {
				continue
			}
			if matchesKeywords(normalized, fieldKeywords[field]) {
				mapping[field] = col
				break
			}
		}
	}
	return mapping
}

func matchesKeywords(header string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(header, kw) {
			return true
		}
	}
	return false
}

// MissingRequiredFields returns the required fields absent from mapping,
// sorted for stable error messages
func (s *ImporterService) MissingRequiredFields(mapping map[string]int) []string {
	var missing []string
	for _, field := range s.requiredFields {
		if _, ok := mapping[field]; !ok {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return missing
}

// ParseCSV parses raw CSV text into rows. Rows may have ragged lengths;
// row processing reads only mapped columns and tolerates short rows.
func ParseCSV(content string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

// Preview parses the content, detects the column mapping and returns a
// sample without writing anything
func (s *ImporterService) Preview(content string) (*models.ImportPreviewResponse, error) {
	rows, err := ParseCSV(content)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}
	if len(rows) == 0 {
		return nil, NewValidationError("file is empty")
	}

	headers := rows[0]
	mapping := DetectColumns(headers)

	sample := rows[1:]
	if len(sample) > 5 {
		sample = sample[:5]
	}

	return &models.ImportPreviewResponse{
		Headers:       headers,
		Mapping:       mapping,
		MissingFields: s.MissingRequiredFields(mapping),
		SampleRows:    sample,
		TotalRows:     len(rows) - 1,
	}, nil
}

// ImportCSV runs a full import from raw CSV text
func (s *ImporterService) ImportCSV(workspaceID string, req *models.ImportRequest) (*models.ImportResult, error) {
	rows, err := ParseCSV(req.Content)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}
	return s.ImportRows(workspaceID, req.FileName, models.ImportSourceCSV, rows, req.Mapping, req.SegmentID)
}

// ImportRows runs a full import from pre-parsed rows (header first).
// Mapping overrides column detection when non-empty. A mapping that
// lacks a required field is a pre-flight validation error: nothing is
// written, not even the ImportBatch audit row. Row-level failures are
// collected and never abort the batch.
func (s *ImporterService) ImportRows(workspaceID, fileName, source string, rows [][]string, mapping map[string]int, segmentID *string) (*models.ImportResult, error) {
	if len(rows) == 0 {
		return nil, NewValidationError("file is empty")
	}

	headers := rows[0]
	if len(mapping) == 0 {
		mapping = DetectColumns(headers)
	}

	if missing := s.MissingRequiredFields(mapping); len(missing) > 0 {
		return nil, NewValidationError("missing required column mapping: " + strings.Join(missing, ", "))
	}
	for field, col := range mapping {
		if col < 0 || col >= len(headers) {
			return nil, NewValidationError(fmt.Sprintf("mapped column %d for field %s is out of range", col, field))
		}
	}

	// Target segment must exist before any row is written
	if segmentID != nil && *segmentID != "" {
		if _, err := s.segmentRepo.GetByID(workspaceID, *segmentID); err != nil {
			return nil, NewValidationError("target segment not found")
		}
	}

	dataRows := rows[1:]
	result := &models.ImportResult{Total: len(dataRows)}

	for i, row := range dataRows {
		rowNum := i + 1 // 1-based, excluding the header row
		lead, err := buildLead(workspaceID, row, mapping, segmentID)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		if err := s.leadRepo.Upsert(lead); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.Succeeded++
	}

	batch := &models.ImportBatch{
		WorkspaceID:   workspaceID,
		FileName:      fileName,
		Source:        source,
		Mapping:       mappingToJSON(mapping),
		TotalRows:     result.Total,
		SucceededRows: result.Succeeded,
		FailedRows:    result.Failed,
		Errors:        result.Errors,
		SegmentID:     segmentID,
	}
	if err := s.batchRepo.Create(batch); err != nil {
		return nil, fmt.Errorf("failed to record import batch: %w", err)
	}
	result.BatchID = batch.ID

	metrics.LeadsImported.Add(float64(result.Succeeded))
	logrus.WithFields(logrus.Fields{
		"workspace_id": workspaceID,
		"batch_id":     batch.ID,
		"total":        result.Total,
		"succeeded":    result.Succeeded,
		"failed":       result.Failed,
	}).Info("Import batch completed")

	return result, nil
}

// buildLead constructs a candidate lead from one data row, reading only
// the mapped columns
func buildLead(workspaceID string, row []string, mapping map[string]int, segmentID *string) (*models.Lead, error) {
	value := func(field string) string {
		col, ok := mapping[field]
		if !ok || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	email := value("email")
	name := value("name")
	if email == "" {
		return nil, fmt.Errorf("email is empty")
	}
	if name == "" {
		return nil, fmt.Errorf("name is empty")
	}
	if !isValidEmail(email) {
		return nil, fmt.Errorf("malformed email %q", email)
	}

	lead := &models.Lead{
		WorkspaceID: workspaceID,
		Email:       strings.ToLower(email),
		Name:        name,
		Company:     value("company"),
		Position:    value("position"),
		Industry:    value("industry"),
		Phone:       value("phone"),
		Website:     value("website"),
		LinkedInURL: value("linkedin_url"),
		Location:    value("location"),
		Source:      models.LeadSourceCSVImport,
		Status:      models.LeadStatusNew,
	}
	if segmentID != nil && *segmentID != "" {
		lead.SegmentID = segmentID
	}
	return lead, nil
}

// isValidEmail is a basic local@domain shape check
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}

func mappingToJSON(mapping map[string]int) models.JSON {
	out := make(models.JSON, len(mapping))
	for field, col := range mapping {
		out[field] = col
	}
	return out
}
