package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LeadsImported counts leads successfully upserted by import runs
	LeadsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outreach_leads_imported_total",
		Help: "Number of leads successfully imported",
	})

	// MessagesDispatched counts dispatch attempts by outcome
	// (sent, bounced, failed)
	MessagesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_messages_dispatched_total",
			Help: "Number of message dispatch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// CampaignTransitions counts campaign lifecycle transitions
	CampaignTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_campaign_transitions_total",
			Help: "Number of campaign status transitions",
		},
		[]string{"to"},
	)

	// TrackingEvents counts open/click/webhook events applied to messages
	TrackingEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_tracking_events_total",
			Help: "Number of tracking events applied to messages",
		},
		[]string{"event"},
	)

	// BatchDrainDuration tracks the latency of one sender drain pass
	BatchDrainDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "outreach_batch_drain_duration_seconds",
		Help:    "Duration of one batch sender drain pass in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
)
