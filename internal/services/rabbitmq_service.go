package services

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// DispatchQueueName is the queue carrying campaign drain jobs
const DispatchQueueName = "campaign_dispatch"

// CampaignDispatchPayload is one drain job: "this campaign is running,
// go drain its pending messages"
type CampaignDispatchPayload struct {
	CampaignID string `json:"campaign_id"`
}

type RabbitMQService struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// GetChannel returns the RabbitMQ channel (for use by other services)
func (s *RabbitMQService) GetChannel() *amqp.Channel {
	return s.channel
}

func NewRabbitMQService() (*RabbitMQService, error) {
	// Get RabbitMQ connection details from environment
	host := getEnv("RABBITMQ_HOST", "localhost")
	port := getEnv("RABBITMQ_PORT", "5672")
	user := getEnv("RABBITMQ_USER", "guest")
	pass := getEnv("RABBITMQ_PASS", "guest")

	url := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		DispatchQueueName, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	logrus.Info("RabbitMQ service initialized successfully")
	return &RabbitMQService{conn: conn, channel: channel}, nil
}

// PublishCampaignDispatch enqueues a drain job for a campaign
func (s *RabbitMQService) PublishCampaignDispatch(campaignID string) error {
	if s == nil || s.channel == nil {
		return fmt.Errorf("rabbitmq not connected")
	}

	body, err := json.Marshal(CampaignDispatchPayload{CampaignID: campaignID})
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch payload: %w", err)
	}

	err = s.channel.Publish(
		"",                // exchange
		DispatchQueueName, // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish dispatch: %w", err)
	}
	return nil
}

// Consume registers a consumer on the dispatch queue with manual acks
func (s *RabbitMQService) Consume() (<-chan amqp.Delivery, error) {
	return s.channel.Consume(
		DispatchQueueName, // queue
		"",                // consumer
		false,             // auto-ack (manual is safer)
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
}

// Close closes the RabbitMQ connection
func (s *RabbitMQService) Close() error {
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			logrus.Warnf("Error closing channel: %v", err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			logrus.Warnf("Error closing connection: %v", err)
		}
	}
	return nil
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
