package models

import (
	"time"
)

// Campaign represents one configured outreach effort: a subject/body
// template pair targeted at a segment, plus the sending policy the
// batch sender enforces while draining its messages.
type Campaign struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WorkspaceID string `json:"workspace_id" gorm:"not null;index;type:uuid"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description,omitempty" gorm:"type:text"`

	SubjectTemplate string `json:"subject_template" gorm:"type:text"`
	BodyTemplate    string `json:"body_template" gorm:"type:text"`

	// Optional follow-up slot, rendered with the original subject
	// available under the "subject" placeholder.
	FollowUpSubjectTemplate string `json:"follow_up_subject_template,omitempty" gorm:"type:text"`
	FollowUpBodyTemplate    string `json:"follow_up_body_template,omitempty" gorm:"type:text"`

	SegmentID *string        `json:"segment_id,omitempty" gorm:"type:uuid;index"`
	Status    CampaignStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`

	// Scheduling intent
	SendImmediately bool       `json:"send_immediately" gorm:"default:true"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty" gorm:"index"`

	// Sending policy
	DelayBetweenEmails     int     `json:"delay_between_emails" gorm:"default:30"` // seconds
	MaxEmailsPerDay        int     `json:"max_emails_per_day" gorm:"default:100"`
	TrackOpens             bool    `json:"track_opens" gorm:"default:true"`
	TrackClicks            bool    `json:"track_clicks" gorm:"default:true"`
	FollowUpEnabled        bool    `json:"follow_up_enabled" gorm:"default:false"`
	FollowUpDays           int     `json:"follow_up_days" gorm:"default:3"`
	PersonalizationEnabled bool    `json:"personalization_enabled" gorm:"default:true"`
	BouncePauseThreshold   float64 `json:"bounce_pause_threshold" gorm:"default:0.2"`

	LaunchedAt  *time.Time `json:"launched_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Segment  *Segment          `json:"segment,omitempty" gorm:"foreignKey:SegmentID;references:ID;constraint:OnDelete:SET NULL"`
	Messages []OutreachMessage `json:"-" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// ReadyToLeaveDraft reports whether the required fields for launching
// are all set. Draft saves are allowed without them.
func (c *Campaign) ReadyToLeaveDraft() []string {
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.SubjectTemplate == "" {
		missing = append(missing, "subject_template")
	}
	if c.BodyTemplate == "" {
		missing = append(missing, "body_template")
	}
	if c.SegmentID == nil || *c.SegmentID == "" {
		missing = append(missing, "segment_id")
	}
	return missing
}

// CreateCampaignRequest represents the request to create a campaign (draft)
type CreateCampaignRequest struct {
	Name                    string     `json:"name" binding:"required"`
	Description             string     `json:"description"`
	SubjectTemplate         string     `json:"subject_template"`
	BodyTemplate            string     `json:"body_template"`
	FollowUpSubjectTemplate string     `json:"follow_up_subject_template"`
	FollowUpBodyTemplate    string     `json:"follow_up_body_template"`
	SegmentID               *string    `json:"segment_id"`
	SendImmediately         *bool      `json:"send_immediately"`
	ScheduledAt             *time.Time `json:"scheduled_at"`
	DelayBetweenEmails      *int       `json:"delay_between_emails"`
	MaxEmailsPerDay         *int       `json:"max_emails_per_day"`
	TrackOpens              *bool      `json:"track_opens"`
	TrackClicks             *bool      `json:"track_clicks"`
	FollowUpEnabled         *bool      `json:"follow_up_enabled"`
	FollowUpDays            *int       `json:"follow_up_days"`
	PersonalizationEnabled  *bool      `json:"personalization_enabled"`
}

// UpdateCampaignRequest represents the request to update a draft campaign
type UpdateCampaignRequest struct {
	Name                    *string    `json:"name"`
	Description             *string    `json:"description"`
	SubjectTemplate         *string    `json:"subject_template"`
	BodyTemplate            *string    `json:"body_template"`
	FollowUpSubjectTemplate *string    `json:"follow_up_subject_template"`
	FollowUpBodyTemplate    *string    `json:"follow_up_body_template"`
	SegmentID               *string    `json:"segment_id"`
	SendImmediately         *bool      `json:"send_immediately"`
	ScheduledAt             *time.Time `json:"scheduled_at"`
	DelayBetweenEmails      *int       `json:"delay_between_emails"`
	MaxEmailsPerDay         *int       `json:"max_emails_per_day"`
	TrackOpens              *bool      `json:"track_opens"`
	TrackClicks             *bool      `json:"track_clicks"`
	FollowUpEnabled         *bool      `json:"follow_up_enabled"`
	FollowUpDays            *int       `json:"follow_up_days"`
	PersonalizationEnabled  *bool      `json:"personalization_enabled"`
}

// CampaignPreviewRequest selects the lead to preview against. When
// LeadID is empty the first lead of the target segment is used.
type CampaignPreviewRequest struct {
	LeadID string `json:"lead_id"`
}

// CampaignPreviewResponse carries the rendered subject and body
type CampaignPreviewResponse struct {
	LeadID  string `json:"lead_id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// GenerateContentResponse reports the result of a generation call
type GenerateContentResponse struct {
	CampaignID string `json:"campaign_id"`
	Created    int    `json:"created"`
	Skipped    int    `json:"skipped"`
	Total      int64  `json:"total"`
}
