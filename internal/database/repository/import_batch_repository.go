package repository

import (
	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type ImportBatchRepository struct {
	db *gorm.DB
}

func NewImportBatchRepository(db *gorm.DB) *ImportBatchRepository {
	return &ImportBatchRepository{db: db}
}

// Create persists the audit record of a completed import run
func (r *ImportBatchRepository) Create(batch *models.ImportBatch) error {
	return r.db.Create(batch).Error
}

// GetByID retrieves an import batch by ID within a workspace
func (r *ImportBatchRepository) GetByID(workspaceID, id string) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	err := r.db.Where("workspace_id = ? AND id = ?", workspaceID, id).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// GetByWorkspace retrieves import history for a workspace, newest first
func (r *ImportBatchRepository) GetByWorkspace(workspaceID string) ([]*models.ImportBatch, error) {
	var batches []*models.ImportBatch
	err := r.db.Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&batches).Error
	return batches, err
}
