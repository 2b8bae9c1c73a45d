package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    CampaignStatus
		to      CampaignStatus
		allowed bool
	}{
		{CampaignStatusDraft, CampaignStatusScheduled, true},
		{CampaignStatusDraft, CampaignStatusRunning, true},
		{CampaignStatusDraft, CampaignStatusPaused, false},
		{CampaignStatusDraft, CampaignStatusCompleted, false},
		{CampaignStatusScheduled, CampaignStatusRunning, true},
		{CampaignStatusScheduled, CampaignStatusFailed, true},
		{CampaignStatusScheduled, CampaignStatusPaused, false},
		{CampaignStatusRunning, CampaignStatusPaused, true},
		{CampaignStatusRunning, CampaignStatusCompleted, true},
		{CampaignStatusRunning, CampaignStatusFailed, true},
		{CampaignStatusRunning, CampaignStatusDraft, false},
		{CampaignStatusPaused, CampaignStatusRunning, true},
		{CampaignStatusPaused, CampaignStatusCompleted, false},
		{CampaignStatusPaused, CampaignStatusDraft, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to),
			"transition %s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	all := []CampaignStatus{
		CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusRunning,
		CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusFailed,
	}
	for _, to := range all {
		assert.False(t, CanTransition(CampaignStatusCompleted, to),
			"completed must not transition to %s", to)
		assert.False(t, CanTransition(CampaignStatusFailed, to),
			"failed must not transition to %s", to)
	}
}

func TestValidCampaignStatus(t *testing.T) {
	assert.True(t, ValidCampaignStatus(CampaignStatusDraft))
	assert.True(t, ValidCampaignStatus(CampaignStatusRunning))
	assert.False(t, ValidCampaignStatus(CampaignStatus("archived")))
	assert.False(t, ValidCampaignStatus(CampaignStatus("")))
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{From: CampaignStatusPaused, To: CampaignStatusCompleted}
	assert.Equal(t, "invalid campaign transition: paused -> completed", err.Error())
}

func TestReadyToLeaveDraft(t *testing.T) {
	segmentID := "seg-1"
	c := &Campaign{
		Name:            "Q3 Outreach",
		SubjectTemplate: "Hi {{name}}",
		BodyTemplate:    "Hello",
		SegmentID:       &segmentID,
	}
	assert.Empty(t, c.ReadyToLeaveDraft())

	c.SubjectTemplate = ""
	c.SegmentID = nil
	missing := c.ReadyToLeaveDraft()
	assert.Equal(t, []string{"subject_template", "segment_id"}, missing)
}
