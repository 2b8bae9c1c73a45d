package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type leadStore interface {
	Create(lead *models.Lead) error
	GetByID(workspaceID, id string) (*models.Lead, error)
	GetByEmail(workspaceID, email string) (*models.Lead, error)
	List(workspaceID, status, segmentID string, offset, limit int) ([]*models.Lead, int64, error)
	Update(lead *models.Lead) error
	Delete(workspaceID, id string) error
}

// LeadService handles manual lead CRUD. Bulk ingestion lives in
// ImporterService; both converge on the same (workspace, email) dedup
// key.
type LeadService struct {
	leadRepo    leadStore
	segmentRepo segmentReader
}

func NewLeadService(leadRepo leadStore, segmentRepo segmentReader) *LeadService {
	return &LeadService{leadRepo: leadRepo, segmentRepo: segmentRepo}
}

// CreateLead adds a single lead by hand. A duplicate email within the
// workspace is rejected rather than silently merged, unlike imports
// where merging is the point.
func (s *LeadService) CreateLead(workspaceID string, req *models.CreateLeadRequest) (*models.Lead, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !isValidEmail(email) {
		return nil, NewValidationError("invalid email address: " + req.Email)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewValidationError("name is required")
	}

	if _, err := s.leadRepo.GetByEmail(workspaceID, email); err == nil {
		return nil, NewValidationError("a lead with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for existing lead: %w", err)
	}

	if req.SegmentID != nil && *req.SegmentID != "" {
		if _, err := s.segmentRepo.GetByID(workspaceID, *req.SegmentID); err != nil {
			return nil, NewValidationError("segment not found")
		}
	}

	lead := &models.Lead{
		WorkspaceID: workspaceID,
		Email:       email,
		Name:        name,
		Company:     strings.TrimSpace(req.Company),
		Position:    strings.TrimSpace(req.Position),
		Industry:    strings.TrimSpace(req.Industry),
		Phone:       strings.TrimSpace(req.Phone),
		Website:     strings.TrimSpace(req.Website),
		LinkedInURL: strings.TrimSpace(req.LinkedInURL),
		Location:    strings.TrimSpace(req.Location),
		Notes:       req.Notes,
		Source:      models.LeadSourceManual,
		Status:      models.LeadStatusNew,
		SegmentID:   req.SegmentID,
	}
	if err := s.leadRepo.Create(lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return lead, nil
}

// GetLead retrieves one lead
func (s *LeadService) GetLead(workspaceID, id string) (*models.Lead, error) {
	lead, err := s.leadRepo.GetByID(workspaceID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("lead not found")
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// ListLeads retrieves leads with optional status/segment filters
func (s *LeadService) ListLeads(workspaceID, status, segmentID string, offset, limit int) ([]*models.Lead, int64, error) {
	if status != "" && !models.ValidLeadStatus(status) {
		return nil, 0, NewValidationError("invalid lead status: " + status)
	}
	return s.leadRepo.List(workspaceID, status, segmentID, offset, limit)
}

// UpdateLead edits a lead. Email is part of the dedup identity and is
// not editable; delete and recreate instead.
func (s *LeadService) UpdateLead(workspaceID, id string, req *models.UpdateLeadRequest) (*models.Lead, error) {
	lead, err := s.GetLead(workspaceID, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if !models.ValidLeadStatus(*req.Status) {
			return nil, NewValidationError("invalid lead status: " + *req.Status)
		}
		if *req.Status == models.LeadStatusContacted && lead.LastContactedAt == nil {
			now := time.Now()
			lead.LastContactedAt = &now
		}
		lead.Status = *req.Status
	}
	if req.SegmentID != nil {
		if *req.SegmentID == "" {
			lead.SegmentID = nil
		} else {
			if _, err := s.segmentRepo.GetByID(workspaceID, *req.SegmentID); err != nil {
				return nil, NewValidationError("segment not found")
			}
			lead.SegmentID = req.SegmentID
		}
	}
	if req.Name != nil {
		lead.Name = strings.TrimSpace(*req.Name)
	}
	if req.Company != nil {
		lead.Company = *req.Company
	}
	if req.Position != nil {
		lead.Position = *req.Position
	}
	if req.Industry != nil {
		lead.Industry = *req.Industry
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Website != nil {
		lead.Website = *req.Website
	}
	if req.LinkedInURL != nil {
		lead.LinkedInURL = *req.LinkedInURL
	}
	if req.Location != nil {
		lead.Location = *req.Location
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}

	if err := s.leadRepo.Update(lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return lead, nil
}

// DeleteLead removes a lead. Its sent messages survive with the lead
// reference cleared.
func (s *LeadService) DeleteLead(workspaceID, id string) error {
	if _, err := s.GetLead(workspaceID, id); err != nil {
		return err
	}
	return s.leadRepo.Delete(workspaceID, id)
}
