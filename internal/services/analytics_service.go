package services

import (
	"fmt"

	"github.com/leadforgehq/outreach-backend/internal/database/repository"
	"github.com/leadforgehq/outreach-backend/internal/models"
)

type analyticsCampaignStore interface {
	GetByID(workspaceID, id string) (*models.Campaign, error)
	GetByWorkspace(workspaceID string) ([]*models.Campaign, error)
	StatusCounts(workspaceID string) (map[string]int64, error)
}

type analyticsMessageStore interface {
	StatusCounts(campaignID string) (map[string]int64, error)
	CountByCampaign(campaignID string) (int64, error)
	GetEngagementCounts(campaignID string) (*repository.EngagementCounts, error)
}

type analyticsLeadStore interface {
	StatusCounts(workspaceID string) (map[string]int64, error)
}

// WorkspaceOverview aggregates lead, campaign and message activity
// across a whole workspace
type WorkspaceOverview struct {
	Leads     map[string]int64 `json:"leads"`
	Campaigns map[string]int64 `json:"campaigns"`

	TotalMessages int64   `json:"total_messages"`
	TotalSent     int64   `json:"total_sent"`
	TotalReplied  int64   `json:"total_replied"`
	TotalBounced  int64   `json:"total_bounced"`
	ReplyRate     float64 `json:"reply_rate"`
	BounceRate    float64 `json:"bounce_rate"`
}

// AnalyticsService derives read-only aggregates from the message log.
// It never writes; the message log is the single source of truth and
// stats are recomputed on demand.
type AnalyticsService struct {
	campaignRepo analyticsCampaignStore
	messageRepo  analyticsMessageStore
	leadRepo     analyticsLeadStore
}

func NewAnalyticsService(
	campaignRepo analyticsCampaignStore,
	messageRepo analyticsMessageStore,
	leadRepo analyticsLeadStore,
) *AnalyticsService {
	return &AnalyticsService{
		campaignRepo: campaignRepo,
		messageRepo:  messageRepo,
		leadRepo:     leadRepo,
	}
}

// CampaignStats computes the per-campaign funnel. Rates are against
// messages actually sent, so a campaign mid-drain reports honest
// numbers rather than rates diluted by its pending backlog.
func (s *AnalyticsService) CampaignStats(workspaceID, campaignID string) (*models.CampaignStats, error) {
	campaign, err := s.campaignRepo.GetByID(workspaceID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign not found: %w", err)
	}

	statusCounts, err := s.messageRepo.StatusCounts(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count message statuses: %w", err)
	}
	engagement, err := s.messageRepo.GetEngagementCounts(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count engagement events: %w", err)
	}
	total, err := s.messageRepo.CountByCampaign(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	stats := &models.CampaignStats{
		CampaignID: campaign.ID,
		Total:      total,
		Pending:    statusCounts[models.MessageStatusPending],
		Failed:     statusCounts[models.MessageStatusFailed],
		Sent:       engagement.Sent,
		Delivered:  engagement.Delivered,
		Opened:     engagement.Opened,
		Clicked:    engagement.Clicked,
		Replied:    engagement.Replied,
		Bounced:    engagement.Bounced,
	}

	if engagement.Sent > 0 {
		sent := float64(engagement.Sent)
		stats.OpenRate = float64(engagement.Opened) / sent
		stats.ClickRate = float64(engagement.Clicked) / sent
		stats.ReplyRate = float64(engagement.Replied) / sent
		stats.BounceRate = float64(engagement.Bounced) / sent
	}
	return stats, nil
}

// Overview aggregates activity across every campaign in the workspace
func (s *AnalyticsService) Overview(workspaceID string) (*WorkspaceOverview, error) {
	leadCounts, err := s.leadRepo.StatusCounts(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	campaignCounts, err := s.campaignRepo.StatusCounts(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to count campaigns: %w", err)
	}

	overview := &WorkspaceOverview{
		Leads:     leadCounts,
		Campaigns: campaignCounts,
	}

	campaigns, err := s.campaignRepo.GetByWorkspace(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	for _, campaign := range campaigns {
		engagement, err := s.messageRepo.GetEngagementCounts(campaign.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count engagement for campaign %s: %w", campaign.ID, err)
		}
		total, err := s.messageRepo.CountByCampaign(campaign.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count messages for campaign %s: %w", campaign.ID, err)
		}
		overview.TotalMessages += total
		overview.TotalSent += engagement.Sent
		overview.TotalReplied += engagement.Replied
		overview.TotalBounced += engagement.Bounced
	}

	if overview.TotalSent > 0 {
		sent := float64(overview.TotalSent)
		overview.ReplyRate = float64(overview.TotalReplied) / sent
		overview.BounceRate = float64(overview.TotalBounced) / sent
	}
	return overview, nil
}
