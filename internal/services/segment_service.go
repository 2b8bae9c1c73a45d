package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type segmentStore interface {
	Create(segment *models.Segment) error
	GetByID(workspaceID, id string) (*models.Segment, error)
	GetByWorkspace(workspaceID string) ([]*models.Segment, error)
	Update(segment *models.Segment) error
	Delete(workspaceID, id string) error
}

type segmentLeadCounter interface {
	CountBySegment(workspaceID, segmentID string) (int64, error)
}

// SegmentService manages the segment registry
type SegmentService struct {
	segmentRepo segmentStore
	leadRepo    segmentLeadCounter
}

func NewSegmentService(segmentRepo segmentStore, leadRepo segmentLeadCounter) *SegmentService {
	return &SegmentService{segmentRepo: segmentRepo, leadRepo: leadRepo}
}

// CreateSegment creates a new segment
func (s *SegmentService) CreateSegment(workspaceID string, req *models.CreateSegmentRequest) (*models.Segment, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewValidationError("segment name is required")
	}

	segment := &models.Segment{
		WorkspaceID: workspaceID,
		Name:        name,
		Description: req.Description,
	}
	if req.Color != "" {
		segment.Color = req.Color
	}
	if err := s.segmentRepo.Create(segment); err != nil {
		return nil, fmt.Errorf("failed to create segment: %w", err)
	}
	return segment, nil
}

// GetSegment retrieves one segment with its lead count
func (s *SegmentService) GetSegment(workspaceID, id string) (*models.SegmentResponse, error) {
	segment, err := s.segmentRepo.GetByID(workspaceID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("segment not found")
		}
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}
	count, err := s.leadRepo.CountBySegment(workspaceID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count segment leads: %w", err)
	}
	return &models.SegmentResponse{Segment: *segment, LeadCount: count}, nil
}

// ListSegments retrieves all segments of a workspace with lead counts
func (s *SegmentService) ListSegments(workspaceID string) ([]*models.SegmentResponse, error) {
	segments, err := s.segmentRepo.GetByWorkspace(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}

	responses := make([]*models.SegmentResponse, 0, len(segments))
	for _, segment := range segments {
		count, err := s.leadRepo.CountBySegment(workspaceID, segment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count segment leads: %w", err)
		}
		responses = append(responses, &models.SegmentResponse{Segment: *segment, LeadCount: count})
	}
	return responses, nil
}

// UpdateSegment edits a segment's name, description or color
func (s *SegmentService) UpdateSegment(workspaceID, id string, req *models.UpdateSegmentRequest) (*models.Segment, error) {
	segment, err := s.segmentRepo.GetByID(workspaceID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("segment not found")
		}
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewValidationError("segment name is required")
		}
		segment.Name = name
	}
	if req.Description != nil {
		segment.Description = *req.Description
	}
	if req.Color != nil {
		segment.Color = *req.Color
	}

	if err := s.segmentRepo.Update(segment); err != nil {
		return nil, fmt.Errorf("failed to update segment: %w", err)
	}
	return segment, nil
}

// DeleteSegment removes a segment. Member leads stay in the workspace
// with their segment cleared.
func (s *SegmentService) DeleteSegment(workspaceID, id string) error {
	if _, err := s.segmentRepo.GetByID(workspaceID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("segment not found")
		}
		return fmt.Errorf("failed to get segment: %w", err)
	}
	return s.segmentRepo.Delete(workspaceID, id)
}
