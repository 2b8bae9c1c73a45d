package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create creates a new campaign
func (r *CampaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

// GetByID retrieves a campaign by ID within a workspace
func (r *CampaignRepository) GetByID(workspaceID, id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Where("workspace_id = ? AND id = ?", workspaceID, id).
		Preload("Segment").
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetAnyByID retrieves a campaign by ID regardless of workspace. Used
// by background workers that operate across workspaces.
func (r *CampaignRepository) GetAnyByID(id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.First(&campaign, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetByWorkspace retrieves all campaigns for a workspace, newest first
func (r *CampaignRepository) GetByWorkspace(workspaceID string) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.Where("workspace_id = ?", workspaceID).
		Preload("Segment").
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

// Update updates a campaign
func (r *CampaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Save(campaign).Error
}

// TransitionStatus moves a campaign from one status to another with a
// conditional update. Returns gorm.ErrRecordNotFound when the campaign
// is no longer in the expected source status, so concurrent lifecycle
// calls cannot race each other past the transition table.
func (r *CampaignRepository) TransitionStatus(id string, from, to models.CampaignStatus) error {
	result := r.db.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetDueScheduled retrieves scheduled campaigns whose send time has arrived
func (r *CampaignRepository) GetDueScheduled(now time.Time) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?",
		models.CampaignStatusScheduled, now).
		Find(&campaigns).Error
	return campaigns, err
}

// GetRunning retrieves all running campaigns across workspaces, for
// the sender's periodic drain pass
func (r *CampaignRepository) GetRunning() ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.Where("status = ?", models.CampaignStatusRunning).
		Find(&campaigns).Error
	return campaigns, err
}

// GetFollowUpEligible retrieves running campaigns with follow-ups enabled
func (r *CampaignRepository) GetFollowUpEligible() ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.Where("status = ? AND follow_up_enabled = ?", models.CampaignStatusRunning, true).
		Find(&campaigns).Error
	return campaigns, err
}

// StatusCounts returns per-status campaign counts for a workspace
func (r *CampaignRepository) StatusCounts(workspaceID string) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.Campaign{}).
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

// Delete removes a campaign and its messages (cascade)
func (r *CampaignRepository) Delete(workspaceID, id string) error {
	return r.db.Where("workspace_id = ? AND id = ?", workspaceID, id).
		Delete(&models.Campaign{}).Error
}
