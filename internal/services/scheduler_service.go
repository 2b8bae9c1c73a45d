package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/leadforgehq/outreach-backend/internal/metrics"
	"github.com/leadforgehq/outreach-backend/internal/models"
)

type schedulerCampaignStore interface {
	GetDueScheduled(now time.Time) ([]*models.Campaign, error)
	GetFollowUpEligible() ([]*models.Campaign, error)
	TransitionStatus(id string, from, to models.CampaignStatus) error
	Update(campaign *models.Campaign) error
}

type schedulerMessageStore interface {
	FindFollowUpCandidates(campaignID string, sentBefore time.Time) ([]*models.OutreachMessage, error)
	CreateIgnoreDuplicates(messages []*models.OutreachMessage) (int, error)
}

// SchedulerService runs the time-driven parts of the engine: promoting
// scheduled campaigns whose send time has arrived, and materializing
// follow-up messages for leads that never replied
type SchedulerService struct {
	campaignRepo  schedulerCampaignStore
	messageRepo   schedulerMessageStore
	workspaceRepo workspaceReader
	dispatcher    dispatchPublisher

	cron *cron.Cron
}

func NewSchedulerService(
	campaignRepo schedulerCampaignStore,
	messageRepo schedulerMessageStore,
	workspaceRepo workspaceReader,
	dispatcher dispatchPublisher,
) *SchedulerService {
	return &SchedulerService{
		campaignRepo:  campaignRepo,
		messageRepo:   messageRepo,
		workspaceRepo: workspaceRepo,
		dispatcher:    dispatcher,
		cron:          cron.New(),
	}
}

// Start registers the cron entries and begins the scheduler loop
func (s *SchedulerService) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.PromoteDueCampaigns); err != nil {
		return fmt.Errorf("failed to schedule campaign promotion: %w", err)
	}
	if _, err := s.cron.AddFunc("@every 1h", s.GenerateFollowUps); err != nil {
		return fmt.Errorf("failed to schedule follow-up generation: %w", err)
	}
	s.cron.Start()
	logrus.Info("Scheduler service started")
	return nil
}

// Stop halts the scheduler and waits for in-flight jobs
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logrus.Info("Scheduler service stopped")
}

// PromoteDueCampaigns moves scheduled campaigns whose send time has
// passed into running and dispatches a drain job for each
func (s *SchedulerService) PromoteDueCampaigns() {
	campaigns, err := s.campaignRepo.GetDueScheduled(time.Now())
	if err != nil {
		logrus.Errorf("Failed to list due scheduled campaigns: %v", err)
		return
	}

	for _, campaign := range campaigns {
		err := s.campaignRepo.TransitionStatus(campaign.ID, models.CampaignStatusScheduled, models.CampaignStatusRunning)
		if err != nil {
			// Another instance may have promoted it already
			logrus.Warnf("Failed to promote campaign %s: %v", campaign.ID, err)
			continue
		}
		metrics.CampaignTransitions.WithLabelValues(string(models.CampaignStatusRunning)).Inc()
		logrus.Infof("Campaign %s promoted to running (scheduled for %s)", campaign.ID, campaign.ScheduledAt)

		if s.dispatcher != nil {
			if err := s.dispatcher.PublishCampaignDispatch(campaign.ID); err != nil {
				logrus.Warnf("Failed to publish dispatch for campaign %s: %v", campaign.ID, err)
			}
		}
	}
}

// GenerateFollowUps materializes pending follow-up messages for every
// running campaign with follow-ups enabled. A lead gets a follow-up
// when its initial message was sent at least FollowUpDays ago, drew no
// reply, and has no follow-up yet; the unique (campaign, lead,
// is_follow_up) index keeps repeated passes idempotent.
func (s *SchedulerService) GenerateFollowUps() {
	campaigns, err := s.campaignRepo.GetFollowUpEligible()
	if err != nil {
		logrus.Errorf("Failed to list follow-up eligible campaigns: %v", err)
		return
	}

	for _, campaign := range campaigns {
		created, err := s.generateFollowUpsFor(campaign)
		if err != nil {
			logrus.Errorf("Follow-up generation failed for campaign %s: %v", campaign.ID, err)
			continue
		}
		if created > 0 {
			logrus.Infof("Generated %d follow-up messages for campaign %s", created, campaign.ID)
		}
	}
}

func (s *SchedulerService) generateFollowUpsFor(campaign *models.Campaign) (int, error) {
	days := campaign.FollowUpDays
	if days <= 0 {
		days = 3
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	candidates, err := s.messageRepo.FindFollowUpCandidates(campaign.ID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find follow-up candidates: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	workspace, err := s.workspaceRepo.GetByID(campaign.WorkspaceID)
	if err != nil {
		return 0, fmt.Errorf("failed to load workspace: %w", err)
	}

	followUps := make([]*models.OutreachMessage, 0, len(candidates))
	for _, initial := range candidates {
		if initial.Lead == nil {
			continue
		}
		subject, body := RenderFollowUp(campaign, initial.Lead, workspace)
		followUps = append(followUps, &models.OutreachMessage{
			CampaignID: campaign.ID,
			LeadID:     initial.LeadID,
			Subject:    subject,
			Body:       body,
			Status:     models.MessageStatusPending,
			IsFollowUp: true,
		})
	}

	return s.messageRepo.CreateIgnoreDuplicates(followUps)
}
