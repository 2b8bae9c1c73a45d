package repository

import (
	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type SegmentRepository struct {
	db *gorm.DB
}

func NewSegmentRepository(db *gorm.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

// Create creates a new segment
func (r *SegmentRepository) Create(segment *models.Segment) error {
	return r.db.Create(segment).Error
}

// GetByID retrieves a segment by ID within a workspace
func (r *SegmentRepository) GetByID(workspaceID, id string) (*models.Segment, error) {
	var segment models.Segment
	err := r.db.Where("workspace_id = ? AND id = ?", workspaceID, id).
		First(&segment).Error
	if err != nil {
		return nil, err
	}
	return &segment, nil
}

// GetByWorkspace retrieves all segments for a workspace
func (r *SegmentRepository) GetByWorkspace(workspaceID string) ([]*models.Segment, error) {
	var segments []*models.Segment
	err := r.db.Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Find(&segments).Error
	return segments, err
}

// Update updates a segment
func (r *SegmentRepository) Update(segment *models.Segment) error {
	return r.db.Save(segment).Error
}

// Delete removes a segment and clears the segment reference on its
// leads; the leads themselves are untouched
func (r *SegmentRepository) Delete(workspaceID, id string) error {
	err := r.db.Model(&models.Lead{}).
		Where("workspace_id = ? AND segment_id = ?", workspaceID, id).
		Update("segment_id", nil).Error
	if err != nil {
		return err
	}
	return r.db.Where("workspace_id = ? AND id = ?", workspaceID, id).
		Delete(&models.Segment{}).Error
}
