package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/leadforgehq/outreach-backend/internal/metrics"
	"github.com/leadforgehq/outreach-backend/internal/models"
	"github.com/leadforgehq/outreach-backend/internal/services/provider"
)

type senderCampaignStore interface {
	GetAnyByID(id string) (*models.Campaign, error)
	GetRunning() ([]*models.Campaign, error)
	TransitionStatus(id string, from, to models.CampaignStatus) error
	Update(campaign *models.Campaign) error
}

type senderMessageStore interface {
	GetPending(campaignID string, limit int) ([]*models.OutreachMessage, error)
	CountPending(campaignID string) (int64, error)
	CountRetryable(campaignID string, maxRetries int) (int64, error)
	CountSentSince(campaignID string, since time.Time) (int64, error)
	RequeueRetryable(campaignID string, maxRetries int, failedBefore time.Time) (int64, error)
	Update(msg *models.OutreachMessage) error
}

type senderLeadStore interface {
	StampContacted(leadID string, at time.Time) error
}

// DrainResult summarizes one drain pass over a campaign's queue
type DrainResult struct {
	Attempted int
	Sent      int
	Bounced   int
	Failed    int
	Completed bool
	AutoPause bool
	CapLeft   int
}

// SenderService drains pending messages for running campaigns under
// each campaign's sending policy. Sends within one campaign are
// serialized (the inflight guard); campaigns drain independently of
// each other.
type SenderService struct {
	campaignRepo  senderCampaignStore
	messageRepo   senderMessageStore
	leadRepo      senderLeadStore
	workspaceRepo workspaceReader
	provider      provider.EmailProvider
	tracking      *TrackingService

	batchSize    int
	maxRetries   int
	retryBackoff time.Duration
	interval     time.Duration

	mu       sync.Mutex
	inflight map[string]bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewSenderService(
	campaignRepo senderCampaignStore,
	messageRepo senderMessageStore,
	leadRepo senderLeadStore,
	workspaceRepo workspaceReader,
	emailProvider provider.EmailProvider,
	tracking *TrackingService,
) *SenderService {
	return &SenderService{
		campaignRepo:  campaignRepo,
		messageRepo:   messageRepo,
		leadRepo:      leadRepo,
		workspaceRepo: workspaceRepo,
		provider:      emailProvider,
		tracking:      tracking,
		batchSize:     25,
		maxRetries:    3,
		retryBackoff:  15 * time.Minute,
		interval:      time.Minute,
		inflight:      make(map[string]bool),
		stopChan:      make(chan struct{}),
	}
}

// SetBatchSize overrides the per-drain selection bound
func (s *SenderService) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// SetInterval overrides the periodic drain interval
func (s *SenderService) SetInterval(interval time.Duration) {
	s.interval = interval
}

// Start launches the periodic drain loop
func (s *SenderService) Start() {
	s.wg.Add(1)
	go s.run()
	logrus.Info("Batch sender service started")
}

// Stop signals the drain loop to exit and waits for inflight drains
func (s *SenderService) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	logrus.Info("Batch sender service stopped")
}

func (s *SenderService) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.drainAllRunning()
		case <-s.stopChan:
			return
		}
	}
}

func (s *SenderService) drainAllRunning() {
	campaigns, err := s.campaignRepo.GetRunning()
	if err != nil {
		logrus.Errorf("Failed to list running campaigns: %v", err)
		return
	}
	for _, campaign := range campaigns {
		// Campaigns drain independently; within a campaign the
		// inflight guard serializes.
		campaignID := campaign.ID
		go func() {
			if _, err := s.DrainCampaign(context.Background(), campaignID); err != nil {
				logrus.Errorf("Drain failed for campaign %s: %v", campaignID, err)
			}
		}()
	}
}

// tryAcquire marks a campaign as draining; returns false when a drain
// is already in flight for it
func (s *SenderService) tryAcquire(campaignID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[campaignID] {
		return false
	}
	s.inflight[campaignID] = true
	return true
}

func (s *SenderService) release(campaignID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, campaignID)
}

// DrainCampaign dispatches up to one batch of pending messages for a
// running campaign, honoring the inter-message delay and the rolling
// daily cap. It detects completion and applies the bounce-rate
// auto-pause safety valve.
func (s *SenderService) DrainCampaign(ctx context.Context, campaignID string) (*DrainResult, error) {
	if !s.tryAcquire(campaignID) {
		logrus.Debugf("Campaign %s is already draining, skipping", campaignID)
		return &DrainResult{}, nil
	}
	defer s.release(campaignID)

	started := time.Now()
	defer func() {
		metrics.BatchDrainDuration.Observe(time.Since(started).Seconds())
	}()

	campaign, err := s.campaignRepo.GetAnyByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusRunning {
		logrus.Debugf("Campaign %s is %s, not draining", campaignID, campaign.Status)
		return &DrainResult{}, nil
	}

	workspace, err := s.workspaceRepo.GetByID(campaign.WorkspaceID)
	if err != nil {
		return nil, err
	}

	// Give transient failures another chance before selecting
	if requeued, err := s.messageRepo.RequeueRetryable(campaignID, s.maxRetries, time.Now().Add(-s.retryBackoff)); err != nil {
		logrus.Warnf("Failed to requeue retryable messages for campaign %s: %v", campaignID, err)
	} else if requeued > 0 {
		logrus.Infof("Requeued %d transient failures for campaign %s", requeued, campaignID)
	}

	result := &DrainResult{}

	// Rolling daily cap: whatever was sent in the trailing 24h counts
	// against today's budget
	sentToday, err := s.messageRepo.CountSentSince(campaignID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	budget := campaign.MaxEmailsPerDay - int(sentToday)
	if budget <= 0 {
		logrus.Infof("Campaign %s reached its daily cap (%d), leaving queue untouched", campaignID, campaign.MaxEmailsPerDay)
		return result, nil
	}
	result.CapLeft = budget

	limit := s.batchSize
	if budget < limit {
		limit = budget
	}

	messages, err := s.messageRepo.GetPending(campaignID, limit)
	if err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		return result, s.maybeComplete(campaign, result)
	}

	limiter := newSendLimiter(campaign.DelayBetweenEmails)

	for _, msg := range messages {
		if err := limiter.Wait(ctx); err != nil {
			// Context cancelled mid-batch; the rest stays pending
			return result, nil
		}
		s.dispatchOne(ctx, campaign, workspace, msg, result)
	}

	// Auto-pause safety valve: a bad list burns sender reputation fast
	if result.Attempted > 0 {
		bounceRate := float64(result.Bounced) / float64(result.Attempted)
		if bounceRate > campaign.BouncePauseThreshold {
			result.AutoPause = true
			if err := s.campaignRepo.TransitionStatus(campaignID, models.CampaignStatusRunning, models.CampaignStatusPaused); err != nil {
				logrus.Errorf("Failed to auto-pause campaign %s: %v", campaignID, err)
			} else {
				metrics.CampaignTransitions.WithLabelValues(string(models.CampaignStatusPaused)).Inc()
				logrus.Warnf("Campaign %s auto-paused: bounce rate %.0f%% exceeded threshold %.0f%%",
					campaignID, bounceRate*100, campaign.BouncePauseThreshold*100)
			}
			return result, nil
		}
	}

	return result, s.maybeComplete(campaign, result)
}

// dispatchOne attempts delivery of a single message and records its outcome
func (s *SenderService) dispatchOne(ctx context.Context, campaign *models.Campaign, workspace *models.Workspace, msg *models.OutreachMessage, result *DrainResult) {
	if msg.Lead == nil {
		// Lead was deleted after generation; nothing to deliver to
		msg.MarkStatus(models.MessageStatusFailed, time.Now())
		msg.ErrorMessage = "lead no longer exists"
		msg.RetryCount = s.maxRetries
		if err := s.messageRepo.Update(msg); err != nil {
			logrus.Errorf("Failed to update message %s: %v", msg.ID, err)
		}
		result.Attempted++
		result.Failed++
		return
	}

	result.Attempted++

	body := msg.Body
	if s.tracking != nil {
		if campaign.TrackClicks {
			body = s.tracking.RewriteLinks(msg.ID, body)
		}
		if campaign.TrackOpens {
			body += s.tracking.OpenPixel(msg.ID)
		}
	}

	sendResult, err := s.provider.Send(ctx, &provider.OutboundEmail{
		MessageID: msg.ID,
		To:        msg.Lead.Email,
		ToName:    msg.Lead.Name,
		From:      workspace.SenderEmail,
		FromName:  workspace.SenderName,
		Subject:   msg.Subject,
		HTMLBody:  body,
	})

	now := time.Now()
	switch {
	case err == nil:
		msg.MarkStatus(models.MessageStatusSent, now)
		msg.ProviderMessageID = sendResult.ProviderMessageID
		msg.ErrorMessage = ""
		result.Sent++
		metrics.MessagesDispatched.WithLabelValues("sent").Inc()

		if err := s.leadRepo.StampContacted(*msg.LeadID, now); err != nil {
			logrus.Warnf("Failed to stamp lead %s as contacted: %v", *msg.LeadID, err)
		}

	case provider.IsPermanent(err):
		// Hard bounce: never retried
		msg.MarkStatus(models.MessageStatusBounced, now)
		msg.ErrorMessage = err.Error()
		result.Bounced++
		metrics.MessagesDispatched.WithLabelValues("bounced").Inc()

	default:
		// Transient (including timeouts): eligible for a later retry
		msg.MarkStatus(models.MessageStatusFailed, now)
		msg.ErrorMessage = err.Error()
		msg.RetryCount++
		result.Failed++
		metrics.MessagesDispatched.WithLabelValues("failed").Inc()
	}

	if err := s.messageRepo.Update(msg); err != nil {
		logrus.Errorf("Failed to update message %s: %v", msg.ID, err)
	}
}

// maybeComplete transitions a campaign to completed when no pending
// messages remain after a drain. Failed messages still inside the
// retry budget count as outstanding work.
func (s *SenderService) maybeComplete(campaign *models.Campaign, result *DrainResult) error {
	pending, err := s.messageRepo.CountPending(campaign.ID)
	if err != nil {
		return err
	}
	retryable, err := s.messageRepo.CountRetryable(campaign.ID, s.maxRetries)
	if err != nil {
		return err
	}
	if pending > 0 || retryable > 0 {
		return nil
	}

	if err := s.campaignRepo.TransitionStatus(campaign.ID, models.CampaignStatusRunning, models.CampaignStatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	campaign.Status = models.CampaignStatusCompleted
	campaign.CompletedAt = &now
	if err := s.campaignRepo.Update(campaign); err != nil {
		return err
	}

	result.Completed = true
	metrics.CampaignTransitions.WithLabelValues(string(models.CampaignStatusCompleted)).Inc()
	logrus.Infof("Campaign %s completed: queue drained", campaign.ID)
	return nil
}

// newSendLimiter builds the inter-message delay limiter. Zero or
// negative delay disables throttling.
func newSendLimiter(delaySeconds int) *rate.Limiter {
	if delaySeconds <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(delaySeconds)*time.Second), 1)
}

// StartQueueConsumer consumes campaign dispatch jobs from RabbitMQ so
// a launch drains immediately instead of waiting for the next tick
func (s *SenderService) StartQueueConsumer(rabbit *RabbitMQService) error {
	deliveries, err := rabbit.Consume()
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				var payload CampaignDispatchPayload
				if err := json.Unmarshal(d.Body, &payload); err != nil {
					logrus.Errorf("Invalid dispatch payload: %v", err)
					// Malformed message; reject without requeue
					d.Nack(false, false)
					continue
				}
				if _, err := s.DrainCampaign(context.Background(), payload.CampaignID); err != nil {
					logrus.Errorf("Dispatch drain failed for campaign %s: %v", payload.CampaignID, err)
					d.Nack(false, false)
					continue
				}
				d.Ack(false)
			case <-s.stopChan:
				return
			}
		}
	}()

	logrus.Infof("Dispatch consumer started on queue %s", DispatchQueueName)
	return nil
}
