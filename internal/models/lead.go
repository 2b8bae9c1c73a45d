package models

import (
	"time"
)

// Lead source values
const (
	LeadSourceManual    = "manual"
	LeadSourceCSVImport = "csv_import"
	LeadSourceAPI       = "api"
	LeadSourceResearch  = "research"
)

// Lead status values
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusResponded = "responded"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
	LeadStatusDead      = "dead"
)

// Lead represents a contact record eligible for outreach. Email is
// unique within the owning workspace; re-imports update the existing
// row instead of creating a duplicate.
type Lead struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WorkspaceID string `json:"workspace_id" gorm:"not null;type:uuid;uniqueIndex:idx_leads_workspace_email"`
	Email       string `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_leads_workspace_email"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`

	Company     string `json:"company,omitempty" gorm:"type:varchar(255)"`
	Position    string `json:"position,omitempty" gorm:"type:varchar(255)"`
	Industry    string `json:"industry,omitempty" gorm:"type:varchar(255)"`
	Phone       string `json:"phone,omitempty" gorm:"type:varchar(50)"`
	Website     string `json:"website,omitempty" gorm:"type:varchar(500)"`
	LinkedInURL string `json:"linkedin_url,omitempty" gorm:"type:varchar(500)"`
	Location    string `json:"location,omitempty" gorm:"type:varchar(255)"`
	Notes       string `json:"notes,omitempty" gorm:"type:text"`

	Source string `json:"source" gorm:"type:varchar(20);not null;default:'manual'"` // manual, csv_import, api, research
	Status string `json:"status" gorm:"type:varchar(20);not null;default:'new';index"`

	SegmentID       *string    `json:"segment_id,omitempty" gorm:"type:uuid;index"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Segment *Segment `json:"segment,omitempty" gorm:"foreignKey:SegmentID;references:ID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for the Lead model
func (Lead) TableName() string {
	return "leads"
}

// ValidLeadStatus reports whether s is one of the persisted lead status values
func ValidLeadStatus(s string) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusResponded,
		LeadStatusQualified, LeadStatusConverted, LeadStatusDead:
		return true
	}
	return false
}

// CreateLeadRequest represents the request to create a lead manually
type CreateLeadRequest struct {
	Email       string  `json:"email" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Company     string  `json:"company"`
	Position    string  `json:"position"`
	Industry    string  `json:"industry"`
	Phone       string  `json:"phone"`
	Website     string  `json:"website"`
	LinkedInURL string  `json:"linkedin_url"`
	Location    string  `json:"location"`
	Notes       string  `json:"notes"`
	SegmentID   *string `json:"segment_id"`
}

// UpdateLeadRequest represents the request to update a lead
type UpdateLeadRequest struct {
	Name        *string `json:"name"`
	Company     *string `json:"company"`
	Position    *string `json:"position"`
	Industry    *string `json:"industry"`
	Phone       *string `json:"phone"`
	Website     *string `json:"website"`
	LinkedInURL *string `json:"linkedin_url"`
	Location    *string `json:"location"`
	Notes       *string `json:"notes"`
	Status      *string `json:"status"`
	SegmentID   *string `json:"segment_id"`
}
