package models

import "fmt"

// CampaignStatus is the finite-state value driving the campaign
// lifecycle. Transitions are validated against the table below rather
// than scattered through handlers.
type CampaignStatus string

// Campaign status values (persisted, wire-visible)
const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusRunning   CampaignStatus = "running"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// campaignTransitions enumerates the legal (from -> to) pairs.
// running <-> paused is the only reversible edge; completed and failed
// are terminal (a new draft is created via duplicate instead).
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusDraft:     {CampaignStatusScheduled, CampaignStatusRunning},
	CampaignStatusScheduled: {CampaignStatusRunning, CampaignStatusFailed},
	CampaignStatusRunning:   {CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusFailed},
	CampaignStatusPaused:    {CampaignStatusRunning},
	CampaignStatusCompleted: {},
	CampaignStatusFailed:    {},
}

// CanTransition reports whether from -> to is a legal lifecycle edge
func CanTransition(from, to CampaignStatus) bool {
	for _, next := range campaignTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError is returned when a lifecycle operation would
// take a campaign through an edge not present in the transition table.
type InvalidTransitionError struct {
	From CampaignStatus
	To   CampaignStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid campaign transition: %s -> %s", e.From, e.To)
}

// ValidCampaignStatus reports whether s is a persisted status value
func ValidCampaignStatus(s CampaignStatus) bool {
	_, ok := campaignTransitions[s]
	return ok
}
