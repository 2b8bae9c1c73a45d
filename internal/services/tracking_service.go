package services

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/leadforgehq/outreach-backend/internal/metrics"
	"github.com/leadforgehq/outreach-backend/internal/models"
)

// Tracking event names, doubled as JWT claim values and metric labels
const (
	TrackingEventOpen  = "open"
	TrackingEventClick = "click"
)

var (
	// Matches href attributes in rendered HTML bodies so click
	// tracking can wrap their targets
	hrefPattern = regexp.MustCompile(`href="(https?://[^"]+)"`)

	ErrInvalidTrackingToken = errors.New("invalid tracking token")
)

// Engagement signals only ever move a message forward. A delivery
// webhook arriving after the lead already opened must not demote the
// message back to delivered.
var statusRank = map[string]int{
	models.MessageStatusPending:   0,
	models.MessageStatusFailed:    1,
	models.MessageStatusSent:      2,
	models.MessageStatusDelivered: 3,
	models.MessageStatusOpened:    4,
	models.MessageStatusClicked:   5,
	models.MessageStatusReplied:   6,
	models.MessageStatusBounced:   7,
}

type trackingMessageStore interface {
	GetByID(id string) (*models.OutreachMessage, error)
	GetByProviderMessageID(providerID string) (*models.OutreachMessage, error)
	Update(msg *models.OutreachMessage) error
}

// trackingClaims carry the message a tracking URL points at. Click
// tokens additionally carry the original destination so the redirect
// target cannot be tampered with.
type trackingClaims struct {
	MessageID string `json:"mid"`
	Event     string `json:"evt"`
	URL       string `json:"url,omitempty"`
	jwt.RegisteredClaims
}

// TrackingService signs and resolves open-pixel and click-redirect
// URLs and folds provider webhook events into the message log
type TrackingService struct {
	messageRepo trackingMessageStore
	secret      []byte
	baseURL     string
}

func NewTrackingService(messageRepo trackingMessageStore, secret, baseURL string) *TrackingService {
	return &TrackingService{
		messageRepo: messageRepo,
		secret:      []byte(secret),
		baseURL:     baseURL,
	}
}

func (s *TrackingService) signToken(messageID, event, url string) (string, error) {
	claims := trackingClaims{
		MessageID: messageID,
		Event:     event,
		URL:       url,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TrackingService) parseToken(tokenString string) (*trackingClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &trackingClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidTrackingToken
	}
	claims, ok := token.Claims.(*trackingClaims)
	if !ok || !token.Valid || claims.MessageID == "" {
		return nil, ErrInvalidTrackingToken
	}
	return claims, nil
}

// OpenPixel returns the 1x1 tracking image tag appended to outgoing
// HTML bodies. Token signing failures degrade to no pixel rather than
// blocking the send.
func (s *TrackingService) OpenPixel(messageID string) string {
	token, err := s.signToken(messageID, TrackingEventOpen, "")
	if err != nil {
		logrus.Warnf("Failed to sign open token for message %s: %v", messageID, err)
		return ""
	}
	return fmt.Sprintf(`<img src="%s/t/o/%s" width="1" height="1" alt="" style="display:none">`, s.baseURL, token)
}

// RewriteLinks wraps every absolute link in the body with a signed
// click-redirect URL
func (s *TrackingService) RewriteLinks(messageID, body string) string {
	return hrefPattern.ReplaceAllStringFunc(body, func(match string) string {
		target := hrefPattern.FindStringSubmatch(match)[1]
		token, err := s.signToken(messageID, TrackingEventClick, target)
		if err != nil {
			logrus.Warnf("Failed to sign click token for message %s: %v", messageID, err)
			return match
		}
		return fmt.Sprintf(`href="%s/t/c/%s"`, s.baseURL, token)
	})
}

// HandleOpen records an open event for the message the token points at
func (s *TrackingService) HandleOpen(tokenString string) error {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return err
	}
	if claims.Event != TrackingEventOpen {
		return ErrInvalidTrackingToken
	}
	metrics.TrackingEvents.WithLabelValues(TrackingEventOpen).Inc()
	return s.advance(claims.MessageID, models.MessageStatusOpened)
}

// HandleClick records a click event and returns the original
// destination URL to redirect to. A click implies an open.
func (s *TrackingService) HandleClick(tokenString string) (string, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Event != TrackingEventClick || claims.URL == "" {
		return "", ErrInvalidTrackingToken
	}
	metrics.TrackingEvents.WithLabelValues(TrackingEventClick).Inc()
	if err := s.advance(claims.MessageID, models.MessageStatusClicked); err != nil {
		// The redirect must still work even when bookkeeping fails
		logrus.Warnf("Failed to record click for message %s: %v", claims.MessageID, err)
	}
	return claims.URL, nil
}

// ApplyProviderEvent folds a delivery webhook event (delivered,
// bounced, replied) into the message identified by the provider's
// message ID
func (s *TrackingService) ApplyProviderEvent(providerMessageID, event string) error {
	var status string
	switch event {
	case "delivered":
		status = models.MessageStatusDelivered
	case "bounced":
		status = models.MessageStatusBounced
	case "replied":
		status = models.MessageStatusReplied
	default:
		return NewValidationError("unknown webhook event: " + event)
	}

	msg, err := s.messageRepo.GetByProviderMessageID(providerMessageID)
	if err != nil {
		return fmt.Errorf("no message for provider id %s: %w", providerMessageID, err)
	}

	metrics.TrackingEvents.WithLabelValues(event).Inc()
	return s.advanceMessage(msg, status)
}

func (s *TrackingService) advance(messageID, status string) error {
	msg, err := s.messageRepo.GetByID(messageID)
	if err != nil {
		return fmt.Errorf("failed to load message %s: %w", messageID, err)
	}
	return s.advanceMessage(msg, status)
}

func (s *TrackingService) advanceMessage(msg *models.OutreachMessage, status string) error {
	now := time.Now()

	// Always stamp the event timestamp, even when the status itself
	// does not move (an open after a click is still worth recording)
	switch status {
	case models.MessageStatusDelivered:
		if msg.DeliveredAt == nil {
			msg.DeliveredAt = &now
		}
	case models.MessageStatusOpened:
		if msg.OpenedAt == nil {
			msg.OpenedAt = &now
		}
	case models.MessageStatusClicked:
		if msg.ClickedAt == nil {
			msg.ClickedAt = &now
		}
	case models.MessageStatusReplied:
		if msg.RepliedAt == nil {
			msg.RepliedAt = &now
		}
	case models.MessageStatusBounced:
		if msg.BouncedAt == nil {
			msg.BouncedAt = &now
		}
	}

	if statusRank[status] > statusRank[msg.Status] {
		msg.Status = status
	}
	return s.messageRepo.Update(msg)
}
