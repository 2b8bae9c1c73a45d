package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// Create creates a new lead
func (r *LeadRepository) Create(lead *models.Lead) error {
	return r.db.Create(lead).Error
}

// Upsert writes a lead keyed on (workspace_id, email). Re-importing an
// existing email updates the non-identity fields in place, which is
// what makes import runs idempotent. Empty incoming values do not
// overwrite populated columns.
func (r *LeadRepository) Upsert(lead *models.Lead) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workspace_id"}, {Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":         gorm.Expr("CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE leads.name END"),
			"company":      gorm.Expr("CASE WHEN EXCLUDED.company <> '' THEN EXCLUDED.company ELSE leads.company END"),
			"position":     gorm.Expr("CASE WHEN EXCLUDED.position <> '' THEN EXCLUDED.position ELSE leads.position END"),
			"industry":     gorm.Expr("CASE WHEN EXCLUDED.industry <> '' THEN EXCLUDED.industry ELSE leads.industry END"),
			"phone":        gorm.Expr("CASE WHEN EXCLUDED.phone <> '' THEN EXCLUDED.phone ELSE leads.phone END"),
			"website":      gorm.Expr("CASE WHEN EXCLUDED.website <> '' THEN EXCLUDED.website ELSE leads.website END"),
			"linked_in_url": gorm.Expr("CASE WHEN EXCLUDED.linked_in_url <> '' THEN EXCLUDED.linked_in_url ELSE leads.linked_in_url END"),
			"location":     gorm.Expr("CASE WHEN EXCLUDED.location <> '' THEN EXCLUDED.location ELSE leads.location END"),
			"segment_id":   gorm.Expr("COALESCE(EXCLUDED.segment_id, leads.segment_id)"),
			"updated_at":   time.Now(),
		}),
	}).Create(lead).Error
}

// GetByID retrieves a lead by ID within a workspace
func (r *LeadRepository) GetByID(workspaceID, id string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.Where("workspace_id = ? AND id = ?", workspaceID, id).
		Preload("Segment").
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetByEmail retrieves a lead by its dedup key (workspace_id, email)
func (r *LeadRepository) GetByEmail(workspaceID, email string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.Where("workspace_id = ? AND email = ?", workspaceID, email).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// List retrieves leads for a workspace with optional status and
// segment filters, newest first
func (r *LeadRepository) List(workspaceID, status, segmentID string, offset, limit int) ([]*models.Lead, int64, error) {
	query := r.db.Model(&models.Lead{}).Where("workspace_id = ?", workspaceID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if segmentID != "" {
		query = query.Where("segment_id = ?", segmentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leads []*models.Lead
	err := query.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Preload("Segment").
		Find(&leads).Error
	return leads, total, err
}

// GetBySegment retrieves all leads in a segment
func (r *LeadRepository) GetBySegment(workspaceID, segmentID string) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := r.db.Where("workspace_id = ? AND segment_id = ?", workspaceID, segmentID).
		Order("created_at ASC").
		Find(&leads).Error
	return leads, err
}

// CountBySegment counts the leads in a segment
func (r *LeadRepository) CountBySegment(workspaceID, segmentID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Lead{}).
		Where("workspace_id = ? AND segment_id = ?", workspaceID, segmentID).
		Count(&count).Error
	return count, err
}

// StatusCounts returns per-status lead counts for a workspace
func (r *LeadRepository) StatusCounts(workspaceID string) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.Lead{}).
		Select("status, count(*) as count").
		Where("workspace_id = ?", workspaceID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// Update updates a lead
func (r *LeadRepository) Update(lead *models.Lead) error {
	return r.db.Save(lead).Error
}

// StampContacted sets last_contacted_at and advances status from new
// to contacted. The status advance is conditional so leads already
// further along the pipeline are not moved backwards.
func (r *LeadRepository) StampContacted(leadID string, at time.Time) error {
	err := r.db.Model(&models.Lead{}).
		Where("id = ?", leadID).
		Update("last_contacted_at", at).Error
	if err != nil {
		return err
	}
	return r.db.Model(&models.Lead{}).
		Where("id = ? AND status = ?", leadID, models.LeadStatusNew).
		Update("status", models.LeadStatusContacted).Error
}

// Delete removes a lead. Messages referencing it keep their row with
// the lead reference cleared (SET NULL constraint), never cascaded.
func (r *LeadRepository) Delete(workspaceID, id string) error {
	return r.db.Where("workspace_id = ? AND id = ?", workspaceID, id).
		Delete(&models.Lead{}).Error
}
