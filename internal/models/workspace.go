package models

import (
	"time"
)

// Workspace is the tenant boundary. Leads, segments, campaigns and
// import batches all belong to exactly one workspace, and the lead
// dedup key is (workspace_id, email).
type Workspace struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	SenderName  string `json:"sender_name" gorm:"type:varchar(255)"`
	SenderEmail string `json:"sender_email" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Workspace model
func (Workspace) TableName() string {
	return "workspaces"
}

// APIKey identifies a workspace on the HTTP API. Only the bcrypt hash
// of the secret part is stored; the prefix is used for lookup.
type APIKey struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WorkspaceID string     `json:"workspace_id" gorm:"not null;index;type:uuid"`
	KeyPrefix   string     `json:"key_prefix" gorm:"type:varchar(16);uniqueIndex;not null"`
	KeyHash     string     `json:"-" gorm:"type:varchar(255);not null"`
	LastUsedAt  *time.Time `json:"last_used_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Workspace Workspace `json:"-" gorm:"foreignKey:WorkspaceID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the APIKey model
func (APIKey) TableName() string {
	return "api_keys"
}
