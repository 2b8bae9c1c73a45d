package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type fakeSchedulerCampaigns struct {
	campaigns map[string]*models.Campaign
}

func (f *fakeSchedulerCampaigns) GetDueScheduled(now time.Time) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range f.campaigns {
		if c.Status == models.CampaignStatusScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSchedulerCampaigns) GetFollowUpEligible() ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range f.campaigns {
		if c.Status == models.CampaignStatusRunning && c.FollowUpEnabled {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSchedulerCampaigns) TransitionStatus(id string, from, to models.CampaignStatus) error {
	c, ok := f.campaigns[id]
	if !ok || c.Status != from {
		return gorm.ErrRecordNotFound
	}
	c.Status = to
	return nil
}

func (f *fakeSchedulerCampaigns) Update(campaign *models.Campaign) error {
	f.campaigns[campaign.ID] = campaign
	return nil
}

type fakeSchedulerMessages struct {
	candidates map[string][]*models.OutreachMessage
	followUps  map[string]bool // campaignID|leadID
	created    []*models.OutreachMessage
}

func newFakeSchedulerMessages() *fakeSchedulerMessages {
	return &fakeSchedulerMessages{
		candidates: make(map[string][]*models.OutreachMessage),
		followUps:  make(map[string]bool),
	}
}

func (f *fakeSchedulerMessages) FindFollowUpCandidates(campaignID string, sentBefore time.Time) ([]*models.OutreachMessage, error) {
	var out []*models.OutreachMessage
	for _, m := range f.candidates[campaignID] {
		if m.SentAt != nil && m.SentAt.Before(sentBefore) && !f.followUps[campaignID+"|"+*m.LeadID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeSchedulerMessages) CreateIgnoreDuplicates(messages []*models.OutreachMessage) (int, error) {
	created := 0
	for _, m := range messages {
		key := m.CampaignID + "|" + *m.LeadID
		if f.followUps[key] {
			continue
		}
		f.followUps[key] = true
		f.created = append(f.created, m)
		created++
	}
	return created, nil
}

func scheduledCampaign(id string, at time.Time) *models.Campaign {
	return &models.Campaign{
		ID:          id,
		WorkspaceID: "ws-1",
		Status:      models.CampaignStatusScheduled,
		ScheduledAt: &at,
	}
}

func newSchedulerForTest(campaigns *fakeSchedulerCampaigns, messages *fakeSchedulerMessages) (*SchedulerService, *fakeDispatcher) {
	dispatcher := &fakeDispatcher{}
	workspaces := &fakeWorkspaces{workspace: &models.Workspace{
		ID: "ws-1", Name: "Acme", SenderName: "Grace", SenderEmail: "grace@acme.test",
	}}
	return NewSchedulerService(campaigns, messages, workspaces, dispatcher), dispatcher
}

func TestPromoteDueCampaigns(t *testing.T) {
	now := time.Now()
	campaigns := &fakeSchedulerCampaigns{campaigns: map[string]*models.Campaign{
		"due":    scheduledCampaign("due", now.Add(-time.Minute)),
		"future": scheduledCampaign("future", now.Add(time.Hour)),
	}}
	svc, dispatcher := newSchedulerForTest(campaigns, newFakeSchedulerMessages())

	svc.PromoteDueCampaigns()

	assert.Equal(t, models.CampaignStatusRunning, campaigns.campaigns["due"].Status)
	assert.Equal(t, models.CampaignStatusScheduled, campaigns.campaigns["future"].Status)
	assert.Equal(t, []string{"due"}, dispatcher.published)
}

func TestPromoteSurvivesLostRace(t *testing.T) {
	now := time.Now()
	raced := scheduledCampaign("raced", now.Add(-time.Minute))
	campaigns := &fakeSchedulerCampaigns{campaigns: map[string]*models.Campaign{
		"raced": raced,
		"due":   scheduledCampaign("due", now.Add(-time.Minute)),
	}}
	svc, _ := newSchedulerForTest(campaigns, newFakeSchedulerMessages())

	// Another instance promoted it between the list and the update
	raced.Status = models.CampaignStatusRunning

	svc.PromoteDueCampaigns()

	assert.Equal(t, models.CampaignStatusRunning, campaigns.campaigns["due"].Status)
}

func followUpFixture(t *testing.T, sentAgo time.Duration) (*fakeSchedulerCampaigns, *fakeSchedulerMessages) {
	t.Helper()
	leadID := "lead-1"
	sentAt := time.Now().Add(-sentAgo)
	campaigns := &fakeSchedulerCampaigns{campaigns: map[string]*models.Campaign{
		"camp-1": {
			ID:              "camp-1",
			WorkspaceID:     "ws-1",
			Status:          models.CampaignStatusRunning,
			SubjectTemplate: "Intro for {{name}}",
			FollowUpEnabled: true,
			FollowUpDays:    3,
		},
	}}
	messages := newFakeSchedulerMessages()
	messages.candidates["camp-1"] = []*models.OutreachMessage{
		{
			ID:         "msg-1",
			CampaignID: "camp-1",
			LeadID:     &leadID,
			Subject:    "Intro for Ada",
			Status:     models.MessageStatusSent,
			SentAt:     &sentAt,
			Lead:       &models.Lead{ID: leadID, Email: "ada@acme.test", Name: "Ada"},
		},
	}
	return campaigns, messages
}

func TestGenerateFollowUps(t *testing.T) {
	campaigns, messages := followUpFixture(t, 4*24*time.Hour)
	svc, _ := newSchedulerForTest(campaigns, messages)

	svc.GenerateFollowUps()

	require.Len(t, messages.created, 1)
	followUp := messages.created[0]
	assert.True(t, followUp.IsFollowUp)
	assert.Equal(t, "camp-1", followUp.CampaignID)
	assert.Equal(t, models.MessageStatusPending, followUp.Status)
	assert.Equal(t, "Re: Intro for Ada", followUp.Subject)
}

func TestGenerateFollowUpsIdempotent(t *testing.T) {
	campaigns, messages := followUpFixture(t, 4*24*time.Hour)
	svc, _ := newSchedulerForTest(campaigns, messages)

	svc.GenerateFollowUps()
	svc.GenerateFollowUps()

	assert.Len(t, messages.created, 1)
}

func TestGenerateFollowUpsRespectsWaitPeriod(t *testing.T) {
	// Sent yesterday, follow-up window is three days
	campaigns, messages := followUpFixture(t, 24*time.Hour)
	svc, _ := newSchedulerForTest(campaigns, messages)

	svc.GenerateFollowUps()

	assert.Empty(t, messages.created)
}

func TestGenerateFollowUpsSkipsDisabledCampaigns(t *testing.T) {
	campaigns, messages := followUpFixture(t, 4*24*time.Hour)
	campaigns.campaigns["camp-1"].FollowUpEnabled = false
	svc, _ := newSchedulerForTest(campaigns, messages)

	svc.GenerateFollowUps()

	assert.Empty(t, messages.created)
}
