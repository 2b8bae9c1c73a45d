package models

import (
	"time"
)

// Message status values (persisted, wire-visible)
const (
	MessageStatusPending   = "pending"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusOpened    = "opened"
	MessageStatusClicked   = "clicked"
	MessageStatusReplied   = "replied"
	MessageStatusBounced   = "bounced"
	MessageStatusFailed    = "failed"
)

// OutreachMessage is one rendered, trackable instance of a campaign's
// template for one lead. The unique index over (campaign_id, lead_id,
// is_follow_up) makes content generation idempotent: regenerating for
// a segment only materializes leads that have no message yet.
type OutreachMessage struct {
	ID         string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CampaignID string  `json:"campaign_id" gorm:"not null;type:uuid;uniqueIndex:idx_messages_campaign_lead"`
	LeadID     *string `json:"lead_id,omitempty" gorm:"type:uuid;uniqueIndex:idx_messages_campaign_lead"`

	Subject    string `json:"subject" gorm:"type:text"`
	Body       string `json:"body" gorm:"type:text"`
	Status     string `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	IsFollowUp bool   `json:"is_follow_up" gorm:"default:false;uniqueIndex:idx_messages_campaign_lead"`

	// Correlates provider webhook events back to this message
	ProviderMessageID string `json:"provider_message_id,omitempty" gorm:"type:varchar(255);index"`

	ErrorMessage string `json:"error_message,omitempty" gorm:"type:text"`
	RetryCount   int    `json:"retry_count" gorm:"default:0"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
	ClickedAt   *time.Time `json:"clicked_at,omitempty"`
	RepliedAt   *time.Time `json:"replied_at,omitempty"`
	BouncedAt   *time.Time `json:"bounced_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Campaign Campaign `json:"-" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
	Lead     *Lead    `json:"lead,omitempty" gorm:"foreignKey:LeadID;references:ID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for the OutreachMessage model
func (OutreachMessage) TableName() string {
	return "outreach_messages"
}

// MarkStatus sets the status and stamps the matching transition
// timestamp. Unknown statuses only update the status column.
func (m *OutreachMessage) MarkStatus(status string, at time.Time) {
	m.Status = status
	switch status {
	case MessageStatusSent:
		m.SentAt = &at
	case MessageStatusDelivered:
		m.DeliveredAt = &at
	case MessageStatusOpened:
		m.OpenedAt = &at
	case MessageStatusClicked:
		m.ClickedAt = &at
	case MessageStatusReplied:
		m.RepliedAt = &at
	case MessageStatusBounced:
		m.BouncedAt = &at
	case MessageStatusFailed:
		m.FailedAt = &at
	}
}

// ValidMessageStatus reports whether s is one of the persisted message status values
func ValidMessageStatus(s string) bool {
	switch s {
	case MessageStatusPending, MessageStatusSent, MessageStatusDelivered,
		MessageStatusOpened, MessageStatusClicked, MessageStatusReplied,
		MessageStatusBounced, MessageStatusFailed:
		return true
	}
	return false
}

// CampaignStats are the read-only aggregates derived from the message log
type CampaignStats struct {
	CampaignID string `json:"campaign_id"`
	Total      int64  `json:"total"`
	Pending    int64  `json:"pending"`
	Sent       int64  `json:"sent"`
	Delivered  int64  `json:"delivered"`
	Opened     int64  `json:"opened"`
	Clicked    int64  `json:"clicked"`
	Replied    int64  `json:"replied"`
	Bounced    int64  `json:"bounced"`
	Failed     int64  `json:"failed"`

	OpenRate   float64 `json:"open_rate"`
	ClickRate  float64 `json:"click_rate"`
	ReplyRate  float64 `json:"reply_rate"`
	BounceRate float64 `json:"bounce_rate"`
}
