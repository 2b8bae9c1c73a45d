package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateIgnoreDuplicates inserts messages, silently skipping any that
// would violate the (campaign_id, lead_id, is_follow_up) unique index.
// Returns the number of rows actually inserted, which is how repeated
// generation calls stay idempotent.
func (r *MessageRepository) CreateIgnoreDuplicates(messages []*models.OutreachMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&messages)
	return int(result.RowsAffected), result.Error
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(id string) (*models.OutreachMessage, error) {
	var msg models.OutreachMessage
	err := r.db.Preload("Lead").First(&msg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetByProviderMessageID retrieves a message by the provider's message ID
func (r *MessageRepository) GetByProviderMessageID(providerID string) (*models.OutreachMessage, error) {
	var msg models.OutreachMessage
	err := r.db.First(&msg, "provider_message_id = ?", providerID).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetPending retrieves up to limit pending messages for a campaign,
// oldest first. Oldest-first ordering is what guarantees fairness and
// eventual completion of the queue.
func (r *MessageRepository) GetPending(campaignID string, limit int) ([]*models.OutreachMessage, error) {
	var messages []*models.OutreachMessage
	err := r.db.Where("campaign_id = ? AND status = ?", campaignID, models.MessageStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Preload("Lead").
		Find(&messages).Error
	return messages, err
}

// CountPending counts the pending messages for a campaign
func (r *MessageRepository) CountPending(campaignID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.OutreachMessage{}).
		Where("campaign_id = ? AND status = ?", campaignID, models.MessageStatusPending).
		Count(&count).Error
	return count, err
}

// CountSentSince counts messages sent for a campaign after the given
// time. Used to enforce the rolling daily cap.
func (r *MessageRepository) CountSentSince(campaignID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.OutreachMessage{}).
		Where("campaign_id = ? AND sent_at IS NOT NULL AND sent_at > ?", campaignID, since).
		Count(&count).Error
	return count, err
}

// CountByCampaign counts all messages for a campaign
func (r *MessageRepository) CountByCampaign(campaignID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.OutreachMessage{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}

// ListByCampaign retrieves messages for a campaign with pagination
func (r *MessageRepository) ListByCampaign(campaignID string, offset, limit int) ([]*models.OutreachMessage, int64, error) {
	var total int64
	query := r.db.Model(&models.OutreachMessage{}).Where("campaign_id = ?", campaignID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []*models.OutreachMessage
	err := query.Order("created_at ASC").
		Offset(offset).Limit(limit).
		Preload("Lead").
		Find(&messages).Error
	return messages, total, err
}

// Update updates a message
func (r *MessageRepository) Update(msg *models.OutreachMessage) error {
	return r.db.Save(msg).Error
}

// RequeueRetryable moves transient failures back to pending so a later
// drain can retry them. Only failures below the retry budget and older
// than the backoff cutoff are requeued; bounces are never touched.
func (r *MessageRepository) RequeueRetryable(campaignID string, maxRetries int, failedBefore time.Time) (int64, error) {
	result := r.db.Model(&models.OutreachMessage{}).
		Where("campaign_id = ? AND status = ? AND retry_count < ? AND failed_at < ?",
			campaignID, models.MessageStatusFailed, maxRetries, failedBefore).
		Updates(map[string]interface{}{
			"status":    models.MessageStatusPending,
			"failed_at": nil,
		})
	return result.RowsAffected, result.Error
}

// CountRetryable counts failed messages still below the retry budget.
// The sender treats these as outstanding work when deciding whether a
// campaign's queue is truly drained.
func (r *MessageRepository) CountRetryable(campaignID string, maxRetries int) (int64, error) {
	var count int64
	err := r.db.Model(&models.OutreachMessage{}).
		Where("campaign_id = ? AND status = ? AND retry_count < ?",
			campaignID, models.MessageStatusFailed, maxRetries).
		Count(&count).Error
	return count, err
}

// StatusCounts returns the per-status message counts for a campaign
func (r *MessageRepository) StatusCounts(campaignID string) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.OutreachMessage{}).
		Select("status, count(*) as count").
		Where("campaign_id = ?", campaignID).
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

// EngagementCounts are timestamp-based counts over a campaign's
// message log. Unlike StatusCounts these are cumulative: a message
// that was opened and then replied to counts in both columns.
type EngagementCounts struct {
	Sent      int64
	Delivered int64
	Opened    int64
	Clicked   int64
	Replied   int64
	Bounced   int64
}

// GetEngagementCounts counts the non-null event timestamps for a
// campaign. The status column only keeps the furthest event, so rate
// math has to come from timestamps.
func (r *MessageRepository) GetEngagementCounts(campaignID string) (*EngagementCounts, error) {
	var counts EngagementCounts
	err := r.db.Model(&models.OutreachMessage{}).
		Select("count(sent_at) as sent, count(delivered_at) as delivered, count(opened_at) as opened, "+
			"count(clicked_at) as clicked, count(replied_at) as replied, count(bounced_at) as bounced").
		Where("campaign_id = ?", campaignID).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

// FindFollowUpCandidates retrieves initial messages of a campaign that
// were sent before the cutoff, received no reply, and have no
// follow-up message yet
func (r *MessageRepository) FindFollowUpCandidates(campaignID string, sentBefore time.Time) ([]*models.OutreachMessage, error) {
	var messages []*models.OutreachMessage
	err := r.db.
		Where("campaign_id = ? AND is_follow_up = ? AND sent_at IS NOT NULL AND sent_at <= ?",
			campaignID, false, sentBefore).
		Where("status NOT IN ?", []string{models.MessageStatusReplied, models.MessageStatusBounced, models.MessageStatusFailed}).
		Where("lead_id IS NOT NULL").
		Where("NOT EXISTS (SELECT 1 FROM outreach_messages f WHERE f.campaign_id = outreach_messages.campaign_id AND f.lead_id = outreach_messages.lead_id AND f.is_follow_up = true)").
		Preload("Lead").
		Find(&messages).Error
	return messages, err
}
