package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type fakeCampaignStore struct {
	campaigns map[string]*models.Campaign
	nextID    int
}

func newFakeCampaignStore() *fakeCampaignStore {
	return &fakeCampaignStore{campaigns: make(map[string]*models.Campaign)}
}

func (f *fakeCampaignStore) Create(campaign *models.Campaign) error {
	f.nextID++
	campaign.ID = fmt.Sprintf("camp-%d", f.nextID)
	f.campaigns[campaign.ID] = campaign
	return nil
}

func (f *fakeCampaignStore) GetByID(workspaceID, id string) (*models.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok || c.WorkspaceID != workspaceID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCampaignStore) GetByWorkspace(workspaceID string) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range f.campaigns {
		if c.WorkspaceID == workspaceID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCampaignStore) Update(campaign *models.Campaign) error {
	f.campaigns[campaign.ID] = campaign
	return nil
}

func (f *fakeCampaignStore) TransitionStatus(id string, from, to models.CampaignStatus) error {
	c, ok := f.campaigns[id]
	if !ok || c.Status != from {
		return gorm.ErrRecordNotFound
	}
	c.Status = to
	return nil
}

func (f *fakeCampaignStore) Delete(workspaceID, id string) error {
	delete(f.campaigns, id)
	return nil
}

// fakeMessageStore enforces the (campaign, lead, is_follow_up)
// uniqueness the real table index provides
type fakeMessageStore struct {
	messages []*models.OutreachMessage
}

func (f *fakeMessageStore) CreateIgnoreDuplicates(messages []*models.OutreachMessage) (int, error) {
	created := 0
	for _, msg := range messages {
		if f.exists(msg.CampaignID, msg.LeadID, msg.IsFollowUp) {
			continue
		}
		msg.ID = fmt.Sprintf("msg-%d", len(f.messages)+1)
		f.messages = append(f.messages, msg)
		created++
	}
	return created, nil
}

func (f *fakeMessageStore) exists(campaignID string, leadID *string, followUp bool) bool {
	for _, m := range f.messages {
		if m.CampaignID == campaignID && leadID != nil && m.LeadID != nil &&
			*m.LeadID == *leadID && m.IsFollowUp == followUp {
			return true
		}
	}
	return false
}

func (f *fakeMessageStore) CountPending(campaignID string) (int64, error) {
	var n int64
	for _, m := range f.messages {
		if m.CampaignID == campaignID && m.Status == models.MessageStatusPending {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageStore) CountByCampaign(campaignID string) (int64, error) {
	var n int64
	for _, m := range f.messages {
		if m.CampaignID == campaignID {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageStore) ListByCampaign(campaignID string, offset, limit int) ([]*models.OutreachMessage, int64, error) {
	var out []*models.OutreachMessage
	for _, m := range f.messages {
		if m.CampaignID == campaignID {
			out = append(out, m)
		}
	}
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

type fakeSegmentLeads struct {
	leads map[string][]*models.Lead // segmentID -> leads
}

func (f *fakeSegmentLeads) GetBySegment(workspaceID, segmentID string) ([]*models.Lead, error) {
	return f.leads[segmentID], nil
}

func (f *fakeSegmentLeads) GetByID(workspaceID, id string) (*models.Lead, error) {
	for _, leads := range f.leads {
		for _, l := range leads {
			if l.ID == id {
				return l, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeWorkspaces struct {
	workspace *models.Workspace
}

func (f *fakeWorkspaces) GetByID(id string) (*models.Workspace, error) {
	return f.workspace, nil
}

type fakeDispatcher struct {
	published []string
	fail      bool
}

func (f *fakeDispatcher) PublishCampaignDispatch(campaignID string) error {
	if f.fail {
		return fmt.Errorf("broker unavailable")
	}
	f.published = append(f.published, campaignID)
	return nil
}

func newCampaignServiceForTest() (*CampaignService, *fakeCampaignStore, *fakeMessageStore, *fakeSegmentLeads, *fakeDispatcher) {
	campaigns := newFakeCampaignStore()
	messages := &fakeMessageStore{}
	leads := &fakeSegmentLeads{leads: map[string][]*models.Lead{
		"seg-1": {
			{ID: "lead-1", Name: "Ada", Email: "ada@lovelace.io", Company: "Lovelace Analytics"},
			{ID: "lead-2", Name: "Grace", Email: "grace@navy.mil", Company: "US Navy"},
		},
	}}
	workspaces := &fakeWorkspaces{workspace: &models.Workspace{ID: "ws-1", SenderName: "Sales Team"}}
	dispatcher := &fakeDispatcher{}
	svc := NewCampaignService(campaigns, messages, leads, workspaces, dispatcher)
	return svc, campaigns, messages, leads, dispatcher
}

func createLaunchableCampaign(t *testing.T, svc *CampaignService) *models.Campaign {
	t.Helper()
	segID := "seg-1"
	campaign, err := svc.CreateCampaign("ws-1", &models.CreateCampaignRequest{
		Name:            "Q3 Outreach",
		SubjectTemplate: "Hi {{name}}",
		BodyTemplate:    "Hello {{name}} at {{company}}",
		SegmentID:       &segID,
	})
	require.NoError(t, err)
	return campaign
}

func TestCreateCampaignDefaults(t *testing.T) {
	svc, _, _, _, _ := newCampaignServiceForTest()

	campaign, err := svc.CreateCampaign("ws-1", &models.CreateCampaignRequest{Name: "Bare"})
	require.NoError(t, err)

	assert.Equal(t, models.CampaignStatusDraft, campaign.Status)
	assert.Equal(t, 30, campaign.DelayBetweenEmails)
	assert.Equal(t, 100, campaign.MaxEmailsPerDay)
	assert.True(t, campaign.TrackOpens)
	assert.True(t, campaign.PersonalizationEnabled)
	assert.InDelta(t, 0.2, campaign.BouncePauseThreshold, 1e-9)
}

func TestGenerateContentIdempotent(t *testing.T) {
	svc, _, messages, leads, _ := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)

	first, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 0, first.Skipped)

	// Re-running creates nothing new
	second, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Skipped)
	assert.EqualValues(t, 2, second.Total)

	// After a new lead joins the segment, only the newcomer is added
	leads.leads["seg-1"] = append(leads.leads["seg-1"],
		&models.Lead{ID: "lead-3", Name: "Katherine", Email: "kj@nasa.gov"})
	third, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Created)
	assert.Len(t, messages.messages, 3)
}

func TestGenerateContentRendersPerLead(t *testing.T) {
	svc, _, messages, _, _ := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)

	_, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)

	require.Len(t, messages.messages, 2)
	assert.Equal(t, "Hi Ada", messages.messages[0].Subject)
	assert.Equal(t, "Hello Ada at Lovelace Analytics", messages.messages[0].Body)
	assert.Equal(t, "Hi Grace", messages.messages[1].Subject)
	assert.Equal(t, models.MessageStatusPending, messages.messages[0].Status)
}

func TestGenerateContentEmptySegment(t *testing.T) {
	svc, _, _, leads, _ := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)
	leads.leads["seg-1"] = nil

	_, err := svc.GenerateContent("ws-1", campaign.ID)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestLaunchRequiresPendingMessages(t *testing.T) {
	svc, _, _, _, _ := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)

	_, err := svc.Launch("ws-1", campaign.ID)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "generate content")
}

func TestLaunchRequiresDraftCompleteness(t *testing.T) {
	svc, _, _, _, _ := newCampaignServiceForTest()
	campaign, err := svc.CreateCampaign("ws-1", &models.CreateCampaignRequest{Name: "No templates"})
	require.NoError(t, err)

	_, err = svc.Launch("ws-1", campaign.ID)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "subject_template")
}

func TestLaunchImmediateGoesRunningAndDispatches(t *testing.T) {
	svc, _, _, _, dispatcher := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)
	_, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)

	launched, err := svc.Launch("ws-1", campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusRunning, launched.Status)
	assert.NotNil(t, launched.LaunchedAt)
	assert.Equal(t, []string{campaign.ID}, dispatcher.published)
}

func TestLaunchScheduledForFuture(t *testing.T) {
	svc, _, _, _, dispatcher := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)
	_, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)

	later := time.Now().Add(2 * time.Hour)
	sendImmediately := false
	_, err = svc.UpdateCampaign("ws-1", campaign.ID, &models.UpdateCampaignRequest{
		SendImmediately: &sendImmediately,
		ScheduledAt:     &later,
	})
	require.NoError(t, err)

	launched, err := svc.Launch("ws-1", campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusScheduled, launched.Status)
	// Nothing dispatched until the scheduler promotes it
	assert.Empty(t, dispatcher.published)
}

func TestLaunchSurvivesBrokerOutage(t *testing.T) {
	svc, _, _, _, dispatcher := newCampaignServiceForTest()
	dispatcher.fail = true
	campaign := createLaunchableCampaign(t, svc)
	_, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)

	// Publish failure is non-fatal; the periodic drain picks it up
	launched, err := svc.Launch("ws-1", campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusRunning, launched.Status)
}

func TestPauseResumeCycle(t *testing.T) {
	svc, campaigns, _, _, _ := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)
	_, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)
	_, err = svc.Launch("ws-1", campaign.ID)
	require.NoError(t, err)

	paused, err := svc.Pause("ws-1", campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusPaused, paused.Status)

	resumed, err := svc.Resume("ws-1", campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusRunning, resumed.Status)
	assert.Equal(t, models.CampaignStatusRunning, campaigns.campaigns[campaign.ID].Status)
}

func TestPauseDraftRejected(t *testing.T) {
	svc, _, _, _, _ := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)

	_, err := svc.Pause("ws-1", campaign.ID)
	require.Error(t, err)
	var transitionErr *models.InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestUpdateNonDraftRejected(t *testing.T) {
	svc, _, _, _, _ := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)
	_, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)
	_, err = svc.Launch("ws-1", campaign.ID)
	require.NoError(t, err)

	newName := "Renamed"
	_, err = svc.UpdateCampaign("ws-1", campaign.ID, &models.UpdateCampaignRequest{Name: &newName})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDuplicateCopiesConfigNotMessages(t *testing.T) {
	svc, _, messages, _, _ := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)
	_, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)

	clone, err := svc.Duplicate("ws-1", campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, "Q3 Outreach (copy)", clone.Name)
	assert.Equal(t, models.CampaignStatusDraft, clone.Status)
	assert.Equal(t, campaign.SubjectTemplate, clone.SubjectTemplate)
	assert.NotEqual(t, campaign.ID, clone.ID)

	count, _ := messages.CountByCampaign(clone.ID)
	assert.EqualValues(t, 0, count)
}

func TestPreviewUsesCustomMessagePlaceholder(t *testing.T) {
	svc, _, _, _, _ := newCampaignServiceForTest()
	segID := "seg-1"
	campaign, err := svc.CreateCampaign("ws-1", &models.CreateCampaignRequest{
		Name:            "Preview",
		SubjectTemplate: "Hi {{name}}",
		BodyTemplate:    "{{custom_message}} - {{sender_name}}",
		SegmentID:       &segID,
	})
	require.NoError(t, err)

	preview, err := svc.Preview("ws-1", campaign.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada", preview.Subject)
	assert.Equal(t, CustomMessagePreviewText+" - Sales Team", preview.Body)
	assert.Equal(t, "lead-1", preview.LeadID)
}

func TestDeleteRunningCampaignRejected(t *testing.T) {
	svc, _, _, _, _ := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)
	_, err := svc.GenerateContent("ws-1", campaign.ID)
	require.NoError(t, err)
	_, err = svc.Launch("ws-1", campaign.ID)
	require.NoError(t, err)

	err = svc.DeleteCampaign("ws-1", campaign.ID)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestWorkspaceIsolation(t *testing.T) {
	svc, _, _, _, _ := newCampaignServiceForTest()
	campaign := createLaunchableCampaign(t, svc)

	_, err := svc.GetCampaign("ws-other", campaign.ID)
	require.Error(t, err)
}
