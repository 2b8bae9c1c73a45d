package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type WorkspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Create creates a new workspace
func (r *WorkspaceRepository) Create(workspace *models.Workspace) error {
	return r.db.Create(workspace).Error
}

// GetByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetByID(id string) (*models.Workspace, error) {
	var workspace models.Workspace
	err := r.db.First(&workspace, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

// Count counts all workspaces
func (r *WorkspaceRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Workspace{}).Count(&count).Error
	return count, err
}

// Update updates a workspace
func (r *WorkspaceRepository) Update(workspace *models.Workspace) error {
	return r.db.Save(workspace).Error
}

type APIKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create creates a new API key
func (r *APIKeyRepository) Create(key *models.APIKey) error {
	return r.db.Create(key).Error
}

// GetByPrefix retrieves an API key by its lookup prefix
func (r *APIKeyRepository) GetByPrefix(prefix string) (*models.APIKey, error) {
	var key models.APIKey
	err := r.db.Preload("Workspace").First(&key, "key_prefix = ?", prefix).Error
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// TouchLastUsed updates the last-used timestamp for a key
func (r *APIKeyRepository) TouchLastUsed(id string, at time.Time) error {
	return r.db.Model(&models.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
