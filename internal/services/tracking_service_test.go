package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type fakeTrackedMessages struct {
	byID       map[string]*models.OutreachMessage
	byProvider map[string]*models.OutreachMessage
}

func newFakeTrackedMessages(msgs ...*models.OutreachMessage) *fakeTrackedMessages {
	f := &fakeTrackedMessages{
		byID:       make(map[string]*models.OutreachMessage),
		byProvider: make(map[string]*models.OutreachMessage),
	}
	for _, m := range msgs {
		f.byID[m.ID] = m
		if m.ProviderMessageID != "" {
			f.byProvider[m.ProviderMessageID] = m
		}
	}
	return f
}

func (f *fakeTrackedMessages) GetByID(id string) (*models.OutreachMessage, error) {
	if m, ok := f.byID[id]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTrackedMessages) GetByProviderMessageID(providerID string) (*models.OutreachMessage, error) {
	if m, ok := f.byProvider[providerID]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTrackedMessages) Update(msg *models.OutreachMessage) error {
	f.byID[msg.ID] = msg
	return nil
}

func sentMessage(id, providerID string) *models.OutreachMessage {
	return &models.OutreachMessage{
		ID:                id,
		CampaignID:        "camp-1",
		Status:            models.MessageStatusSent,
		ProviderMessageID: providerID,
	}
}

func newTrackingForTest(msgs ...*models.OutreachMessage) (*TrackingService, *fakeTrackedMessages) {
	store := newFakeTrackedMessages(msgs...)
	svc := NewTrackingService(store, "test-secret", "https://track.leadforgehq.com")
	return svc, store
}

func TestOpenPixelRoundTrip(t *testing.T) {
	svc, store := newTrackingForTest(sentMessage("msg-1", "pm-1"))

	pixel := svc.OpenPixel("msg-1")
	require.Contains(t, pixel, "https://track.leadforgehq.com/t/o/")

	// Extract the token out of the img tag
	start := strings.Index(pixel, "/t/o/") + len("/t/o/")
	end := strings.Index(pixel[start:], `"`)
	token := pixel[start : start+end]

	require.NoError(t, svc.HandleOpen(token))

	msg := store.byID["msg-1"]
	assert.Equal(t, models.MessageStatusOpened, msg.Status)
	assert.NotNil(t, msg.OpenedAt)
}

func TestClickRoundTripRedirectsAndImpliesOpen(t *testing.T) {
	svc, store := newTrackingForTest(sentMessage("msg-1", "pm-1"))

	body := `Check <a href="https://example.com/pricing">our pricing</a>`
	rewritten := svc.RewriteLinks("msg-1", body)
	require.NotEqual(t, body, rewritten)
	require.Contains(t, rewritten, "/t/c/")
	assert.NotContains(t, rewritten, `href="https://example.com/pricing"`)

	start := strings.Index(rewritten, "/t/c/") + len("/t/c/")
	end := strings.Index(rewritten[start:], `"`)
	token := rewritten[start : start+end]

	target, err := svc.HandleClick(token)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/pricing", target)

	msg := store.byID["msg-1"]
	assert.Equal(t, models.MessageStatusClicked, msg.Status)
	assert.NotNil(t, msg.ClickedAt)
}

func TestRewriteLinksLeavesRelativeLinksAlone(t *testing.T) {
	svc, _ := newTrackingForTest(sentMessage("msg-1", "pm-1"))

	body := `<a href="/unsubscribe">unsubscribe</a>`
	assert.Equal(t, body, svc.RewriteLinks("msg-1", body))
}

func TestTokenEventTypesAreNotInterchangeable(t *testing.T) {
	svc, _ := newTrackingForTest(sentMessage("msg-1", "pm-1"))

	pixel := svc.OpenPixel("msg-1")
	start := strings.Index(pixel, "/t/o/") + len("/t/o/")
	end := strings.Index(pixel[start:], `"`)
	openToken := pixel[start : start+end]

	// An open token presented at the click endpoint must be rejected
	_, err := svc.HandleClick(openToken)
	assert.ErrorIs(t, err, ErrInvalidTrackingToken)
}

func TestInvalidTokensRejected(t *testing.T) {
	svc, _ := newTrackingForTest(sentMessage("msg-1", "pm-1"))

	assert.ErrorIs(t, svc.HandleOpen("garbage"), ErrInvalidTrackingToken)

	// Token signed with a different secret
	other := NewTrackingService(newFakeTrackedMessages(), "other-secret", "https://x")
	pixel := other.OpenPixel("msg-1")
	start := strings.Index(pixel, "/t/o/") + len("/t/o/")
	end := strings.Index(pixel[start:], `"`)
	assert.ErrorIs(t, svc.HandleOpen(pixel[start:start+end]), ErrInvalidTrackingToken)
}

func TestStatusOnlyMovesForward(t *testing.T) {
	msg := sentMessage("msg-1", "pm-1")
	svc, store := newTrackingForTest(msg)

	require.NoError(t, svc.ApplyProviderEvent("pm-1", "replied"))
	assert.Equal(t, models.MessageStatusReplied, store.byID["msg-1"].Status)

	// A late delivery webhook must not demote the reply
	require.NoError(t, svc.ApplyProviderEvent("pm-1", "delivered"))
	assert.Equal(t, models.MessageStatusReplied, store.byID["msg-1"].Status)
	// But its timestamp is still recorded
	assert.NotNil(t, store.byID["msg-1"].DeliveredAt)
}

func TestApplyProviderEvents(t *testing.T) {
	svc, store := newTrackingForTest(sentMessage("msg-1", "pm-1"))

	require.NoError(t, svc.ApplyProviderEvent("pm-1", "delivered"))
	assert.Equal(t, models.MessageStatusDelivered, store.byID["msg-1"].Status)

	require.NoError(t, svc.ApplyProviderEvent("pm-1", "bounced"))
	assert.Equal(t, models.MessageStatusBounced, store.byID["msg-1"].Status)
	assert.NotNil(t, store.byID["msg-1"].BouncedAt)
}

func TestApplyProviderEventUnknownEvent(t *testing.T) {
	svc, _ := newTrackingForTest(sentMessage("msg-1", "pm-1"))

	err := svc.ApplyProviderEvent("pm-1", "unsubscribed")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestApplyProviderEventUnknownMessage(t *testing.T) {
	svc, _ := newTrackingForTest()

	err := svc.ApplyProviderEvent("pm-missing", "delivered")
	require.Error(t, err)
}
