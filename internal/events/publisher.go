package events

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	kafka "github.com/segmentio/kafka-go"
)

// Topics the backend publishes to. Frontends consume these for realtime
// feed updates; an ops consumer watches the admin topic for prize alerts.
const (
	TopicFeed  = "salesjourney.feed"
	TopicAdmin = "salesjourney.admin"
)

// Message is the envelope for every published event.
type Message struct {
	Type      string         `json:"type"`
	CompanyID string         `json:"company_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Publisher pushes realtime notifications. Implementations must be safe
// for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Close() error
}

// NewFromEnv returns a Kafka publisher when KAFKA_BROKERS is set and a
// no-op publisher otherwise, so local setups run without a broker.
func NewFromEnv() Publisher {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		log.Println("KAFKA_BROKERS not set, realtime events disabled")
		return NopPublisher{}
	}
	return NewKafkaPublisher(strings.Split(brokers, ","))
}

// KafkaPublisher writes event envelopes to Kafka topics.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, msg Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(msg.Type),
		Value: value,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Message) error { return nil }
func (NopPublisher) Close() error                                   { return nil }
