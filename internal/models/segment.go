package models

import (
	"time"
)

// Segment is a named, colored grouping of leads used for campaign
// targeting. A lead belongs to at most one segment at a time.
type Segment struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WorkspaceID string `json:"workspace_id" gorm:"not null;index;type:uuid"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description,omitempty" gorm:"type:text"`
	Color       string `json:"color" gorm:"type:varchar(20);default:'#6366f1'"`
	CreatedBy   string `json:"created_by,omitempty" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Segment model
func (Segment) TableName() string {
	return "segments"
}

// CreateSegmentRequest represents the request to create a segment
type CreateSegmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// UpdateSegmentRequest represents the request to update a segment
type UpdateSegmentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// SegmentResponse is a segment plus its current lead count
type SegmentResponse struct {
	Segment
	LeadCount int64 `json:"lead_count"`
}
