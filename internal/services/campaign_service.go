package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/metrics"
	"github.com/leadforgehq/outreach-backend/internal/models"
)

type campaignStore interface {
	Create(campaign *models.Campaign) error
	GetByID(workspaceID, id string) (*models.Campaign, error)
	GetByWorkspace(workspaceID string) ([]*models.Campaign, error)
	Update(campaign *models.Campaign) error
	TransitionStatus(id string, from, to models.CampaignStatus) error
	Delete(workspaceID, id string) error
}

type messageStore interface {
	CreateIgnoreDuplicates(messages []*models.OutreachMessage) (int, error)
	CountPending(campaignID string) (int64, error)
	CountByCampaign(campaignID string) (int64, error)
	ListByCampaign(campaignID string, offset, limit int) ([]*models.OutreachMessage, int64, error)
}

type segmentLeadReader interface {
	GetBySegment(workspaceID, segmentID string) ([]*models.Lead, error)
	GetByID(workspaceID, id string) (*models.Lead, error)
}

type workspaceReader interface {
	GetByID(id string) (*models.Workspace, error)
}

type dispatchPublisher interface {
	PublishCampaignDispatch(campaignID string) error
}

// CampaignService owns the campaign lifecycle state machine and the
// side effects of each transition: content generation, launch,
// pause/resume, duplication. Completion is detected by the batch
// sender, not requested by callers.
type CampaignService struct {
	campaignRepo  campaignStore
	messageRepo   messageStore
	leadRepo      segmentLeadReader
	workspaceRepo workspaceReader
	dispatcher    dispatchPublisher
}

func NewCampaignService(
	campaignRepo campaignStore,
	messageRepo messageStore,
	leadRepo segmentLeadReader,
	workspaceRepo workspaceReader,
	dispatcher dispatchPublisher,
) *CampaignService {
	return &CampaignService{
		campaignRepo:  campaignRepo,
		messageRepo:   messageRepo,
		leadRepo:      leadRepo,
		workspaceRepo: workspaceRepo,
		dispatcher:    dispatcher,
	}
}

// CreateCampaign persists a new draft campaign. Templates and segment
// may still be missing at this point; they are required only to leave
// draft.
func (s *CampaignService) CreateCampaign(workspaceID string, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	campaign := &models.Campaign{
		WorkspaceID:             workspaceID,
		Name:                    req.Name,
		Description:             req.Description,
		SubjectTemplate:         req.SubjectTemplate,
		BodyTemplate:            req.BodyTemplate,
		FollowUpSubjectTemplate: req.FollowUpSubjectTemplate,
		FollowUpBodyTemplate:    req.FollowUpBodyTemplate,
		SegmentID:               req.SegmentID,
		Status:                  models.CampaignStatusDraft,
		SendImmediately:         true,
		ScheduledAt:             req.ScheduledAt,
		DelayBetweenEmails:      30,
		MaxEmailsPerDay:         100,
		TrackOpens:              true,
		TrackClicks:             true,
		FollowUpDays:            3,
		PersonalizationEnabled:  true,
		BouncePauseThreshold:    0.2,
	}
	applyPolicyOverrides(campaign, req)

	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

func applyPolicyOverrides(c *models.Campaign, req *models.CreateCampaignRequest) {
	if req.SendImmediately != nil {
		c.SendImmediately = *req.SendImmediately
	}
	if req.DelayBetweenEmails != nil {
		c.DelayBetweenEmails = *req.DelayBetweenEmails
	}
	if req.MaxEmailsPerDay != nil {
		c.MaxEmailsPerDay = *req.MaxEmailsPerDay
	}
	if req.TrackOpens != nil {
		c.TrackOpens = *req.TrackOpens
	}
	if req.TrackClicks != nil {
		c.TrackClicks = *req.TrackClicks
	}
	if req.FollowUpEnabled != nil {
		c.FollowUpEnabled = *req.FollowUpEnabled
	}
	if req.FollowUpDays != nil {
		c.FollowUpDays = *req.FollowUpDays
	}
	if req.PersonalizationEnabled != nil {
		c.PersonalizationEnabled = *req.PersonalizationEnabled
	}
}

// GetCampaign retrieves one campaign
func (s *CampaignService) GetCampaign(workspaceID, id string) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(workspaceID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("campaign not found")
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

// ListCampaigns retrieves all campaigns for a workspace
func (s *CampaignService) ListCampaigns(workspaceID string) ([]*models.Campaign, error) {
	campaigns, err := s.campaignRepo.GetByWorkspace(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// UpdateCampaign edits campaign configuration. Only drafts are
// editable; anything further along must be duplicated into a new
// draft instead.
func (s *CampaignService) UpdateCampaign(workspaceID, id string, req *models.UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return nil, NewValidationError("only draft campaigns can be edited; duplicate it instead")
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Description != nil {
		campaign.Description = *req.Description
	}
	if req.SubjectTemplate != nil {
		campaign.SubjectTemplate = *req.SubjectTemplate
	}
	if req.BodyTemplate != nil {
		campaign.BodyTemplate = *req.BodyTemplate
	}
	if req.FollowUpSubjectTemplate != nil {
		campaign.FollowUpSubjectTemplate = *req.FollowUpSubjectTemplate
	}
	if req.FollowUpBodyTemplate != nil {
		campaign.FollowUpBodyTemplate = *req.FollowUpBodyTemplate
	}
	if req.SegmentID != nil {
		campaign.SegmentID = req.SegmentID
	}
	if req.SendImmediately != nil {
		campaign.SendImmediately = *req.SendImmediately
	}
	if req.ScheduledAt != nil {
		campaign.ScheduledAt = req.ScheduledAt
	}
	if req.DelayBetweenEmails != nil {
		campaign.DelayBetweenEmails = *req.DelayBetweenEmails
	}
	if req.MaxEmailsPerDay != nil {
		campaign.MaxEmailsPerDay = *req.MaxEmailsPerDay
	}
	if req.TrackOpens != nil {
		campaign.TrackOpens = *req.TrackOpens
	}
	if req.TrackClicks != nil {
		campaign.TrackClicks = *req.TrackClicks
	}
	if req.FollowUpEnabled != nil {
		campaign.FollowUpEnabled = *req.FollowUpEnabled
	}
	if req.FollowUpDays != nil {
		campaign.FollowUpDays = *req.FollowUpDays
	}
	if req.PersonalizationEnabled != nil {
		campaign.PersonalizationEnabled = *req.PersonalizationEnabled
	}

	if err := s.campaignRepo.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return campaign, nil
}

// GenerateContent renders one pending message per lead of the target
// segment that has no message for this campaign yet. Idempotent:
// already-materialized leads are skipped via the unique
// (campaign, lead) index, so re-running after adding leads only
// creates messages for the newcomers.
func (s *CampaignService) GenerateContent(workspaceID, id string) (*models.GenerateContentResponse, error) {
	campaign, err := s.GetCampaign(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.CampaignStatusCompleted || campaign.Status == models.CampaignStatusFailed {
		return nil, NewValidationError("campaign is finished; duplicate it to send again")
	}
	if campaign.SegmentID == nil || *campaign.SegmentID == "" {
		return nil, NewValidationError("campaign has no target segment")
	}

	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	leads, err := s.leadRepo.GetBySegment(workspaceID, *campaign.SegmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load segment leads: %w", err)
	}
	if len(leads) == 0 {
		return nil, NewValidationError("target segment has no leads")
	}

	messages := make([]*models.OutreachMessage, 0, len(leads))
	for _, lead := range leads {
		leadID := lead.ID
		subject, body := RenderMessage(campaign, lead, workspace, false)
		messages = append(messages, &models.OutreachMessage{
			CampaignID: campaign.ID,
			LeadID:     &leadID,
			Subject:    subject,
			Body:       body,
			Status:     models.MessageStatusPending,
		})
	}

	created, err := s.messageRepo.CreateIgnoreDuplicates(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to insert messages: %w", err)
	}

	total, err := s.messageRepo.CountByCampaign(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"created":     created,
		"skipped":     len(messages) - created,
	}).Info("Campaign content generated")

	return &models.GenerateContentResponse{
		CampaignID: campaign.ID,
		Created:    created,
		Skipped:    len(messages) - created,
		Total:      total,
	}, nil
}

// Launch moves a draft campaign into running, or into scheduled when a
// future send time is configured. It refuses to launch a campaign with
// nothing to send.
func (s *CampaignService) Launch(workspaceID, id string) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if missing := campaign.ReadyToLeaveDraft(); len(missing) > 0 {
		return nil, NewValidationError("campaign is missing required fields: " + joinFields(missing))
	}

	pending, err := s.messageRepo.CountPending(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending messages: %w", err)
	}
	if pending == 0 {
		return nil, NewValidationError("campaign has no pending messages; generate content first")
	}

	target := models.CampaignStatusRunning
	if !campaign.SendImmediately && campaign.ScheduledAt != nil && campaign.ScheduledAt.After(time.Now()) {
		target = models.CampaignStatusScheduled
	}

	if !models.CanTransition(campaign.Status, target) {
		return nil, &models.InvalidTransitionError{From: campaign.Status, To: target}
	}
	if err := s.campaignRepo.TransitionStatus(campaign.ID, campaign.Status, target); err != nil {
		return nil, fmt.Errorf("failed to transition campaign: %w", err)
	}

	now := time.Now()
	campaign.Status = target
	campaign.LaunchedAt = &now
	if err := s.campaignRepo.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	metrics.CampaignTransitions.WithLabelValues(string(target)).Inc()

	if target == models.CampaignStatusRunning && s.dispatcher != nil {
		if err := s.dispatcher.PublishCampaignDispatch(campaign.ID); err != nil {
			// The periodic drain pass will pick the campaign up anyway
			logrus.Warnf("Failed to publish dispatch for campaign %s: %v", campaign.ID, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"status":      target,
	}).Info("Campaign launched")
	return campaign, nil
}

// Pause stops the batch sender from selecting further messages for the
// campaign. Messages already dispatched are unaffected.
func (s *CampaignService) Pause(workspaceID, id string) (*models.Campaign, error) {
	return s.transition(workspaceID, id, models.CampaignStatusRunning, models.CampaignStatusPaused)
}

// Resume re-enables message selection for a paused campaign
func (s *CampaignService) Resume(workspaceID, id string) (*models.Campaign, error) {
	campaign, err := s.transition(workspaceID, id, models.CampaignStatusPaused, models.CampaignStatusRunning)
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.PublishCampaignDispatch(campaign.ID); err != nil {
			logrus.Warnf("Failed to publish dispatch for campaign %s: %v", campaign.ID, err)
		}
	}
	return campaign, nil
}

func (s *CampaignService) transition(workspaceID, id string, from, to models.CampaignStatus) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != from || !models.CanTransition(from, to) {
		return nil, &models.InvalidTransitionError{From: campaign.Status, To: to}
	}
	if err := s.campaignRepo.TransitionStatus(id, from, to); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.InvalidTransitionError{From: from, To: to}
		}
		return nil, fmt.Errorf("failed to transition campaign: %w", err)
	}
	campaign.Status = to
	metrics.CampaignTransitions.WithLabelValues(string(to)).Inc()
	return campaign, nil
}

// Duplicate creates a new draft campaign copying the configuration of
// an existing one. Messages are never copied.
func (s *CampaignService) Duplicate(workspaceID, id string) (*models.Campaign, error) {
	src, err := s.GetCampaign(workspaceID, id)
	if err != nil {
		return nil, err
	}

	clone := &models.Campaign{
		WorkspaceID:             workspaceID,
		Name:                    src.Name + " (copy)",
		Description:             src.Description,
		SubjectTemplate:         src.SubjectTemplate,
		BodyTemplate:            src.BodyTemplate,
		FollowUpSubjectTemplate: src.FollowUpSubjectTemplate,
		FollowUpBodyTemplate:    src.FollowUpBodyTemplate,
		SegmentID:               src.SegmentID,
		Status:                  models.CampaignStatusDraft,
		SendImmediately:         src.SendImmediately,
		DelayBetweenEmails:      src.DelayBetweenEmails,
		MaxEmailsPerDay:         src.MaxEmailsPerDay,
		TrackOpens:              src.TrackOpens,
		TrackClicks:             src.TrackClicks,
		FollowUpEnabled:         src.FollowUpEnabled,
		FollowUpDays:            src.FollowUpDays,
		PersonalizationEnabled:  src.PersonalizationEnabled,
		BouncePauseThreshold:    src.BouncePauseThreshold,
	}
	if err := s.campaignRepo.Create(clone); err != nil {
		return nil, fmt.Errorf("failed to duplicate campaign: %w", err)
	}
	return clone, nil
}

// Preview renders the campaign templates for one lead without writing
// anything. The reserved custom_message key gets its fixed preview
// text.
func (s *CampaignService) Preview(workspaceID, id, leadID string) (*models.CampaignPreviewResponse, error) {
	campaign, err := s.GetCampaign(workspaceID, id)
	if err != nil {
		return nil, err
	}

	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	var lead *models.Lead
	if leadID != "" {
		lead, err = s.leadRepo.GetByID(workspaceID, leadID)
		if err != nil {
			return nil, errors.New("lead not found")
		}
	} else if campaign.SegmentID != nil && *campaign.SegmentID != "" {
		leads, err := s.leadRepo.GetBySegment(workspaceID, *campaign.SegmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load segment leads: %w", err)
		}
		if len(leads) > 0 {
			lead = leads[0]
		}
	}

	subject, body := RenderMessage(campaign, lead, workspace, true)
	resp := &models.CampaignPreviewResponse{Subject: subject, Body: body}
	if lead != nil {
		resp.LeadID = lead.ID
	}
	return resp, nil
}

// ListMessages retrieves the messages of a campaign with pagination
func (s *CampaignService) ListMessages(workspaceID, id string, offset, limit int) ([]*models.OutreachMessage, int64, error) {
	campaign, err := s.GetCampaign(workspaceID, id)
	if err != nil {
		return nil, 0, err
	}
	return s.messageRepo.ListByCampaign(campaign.ID, offset, limit)
}

// DeleteCampaign removes a campaign and its messages. Running
// campaigns must be paused first.
func (s *CampaignService) DeleteCampaign(workspaceID, id string) error {
	campaign, err := s.GetCampaign(workspaceID, id)
	if err != nil {
		return err
	}
	if campaign.Status == models.CampaignStatusRunning {
		return NewValidationError("pause the campaign before deleting it")
	}
	return s.campaignRepo.Delete(workspaceID, id)
}

func joinFields(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ", "
		}
		out += f
	}
	return out
}
