package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/internal/metrics"
	"github.com/temcen/bookrec/pkg/models"
)

const (
	DefaultModelEventsTopic = "bookrec-model-events"
	EventModelBuilt         = "model.built"

	publishTimeout = 10 * time.Second
)

// ModelEvent announces that a new snapshot is serving queries.
type ModelEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Event      string    `json:"event"`
	SnapshotID string    `json:"snapshot_id"`
	Mode       string    `json:"mode"`
	Books      int       `json:"books"`
	Features   int       `json:"features"`
	BuiltAt    time.Time `json:"built_at"`
	Timestamp  time.Time `json:"timestamp"`
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes model events to Kafka.
type Publisher struct {
	writer  messageWriter
	topic   string
	logger  *logrus.Logger
	metrics *metrics.Collector
}

func NewPublisher(cfg config.KafkaConfig, logger *logrus.Logger, m *metrics.Collector) *Publisher {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultModelEventsTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // key by snapshot id
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}

	return newPublisher(writer, topic, logger, m)
}

func newPublisher(w messageWriter, topic string, logger *logrus.Logger, m *metrics.Collector) *Publisher {
	return &Publisher{writer: w, topic: topic, logger: logger, metrics: m}
}

// ModelBuilt publishes a model.built event. Failures are logged, never returned,
// so a broker outage cannot fail a model build.
func (p *Publisher) ModelBuilt(info models.ModelInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	event := ModelEvent{
		EventID:    uuid.New(),
		Event:      EventModelBuilt,
		SnapshotID: info.SnapshotID,
		Mode:       info.Mode,
		Books:      info.Books,
		Features:   info.Features,
		BuiltAt:    info.BuiltAt,
		Timestamp:  time.Now().UTC(),
	}

	if err := p.Publish(ctx, event); err != nil {
		p.logger.WithError(err).WithField("snapshot_id", info.SnapshotID).Warn("Failed to publish model event")
	}
}

// Publish writes one event keyed by snapshot id.
func (p *Publisher) Publish(ctx context.Context, event ModelEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.SnapshotID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Event)},
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	err = p.writer.WriteMessages(ctx, msg)
	p.metrics.RecordEvent(event.Event, err)
	if err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"event":       event.Event,
		"snapshot_id": event.SnapshotID,
		"topic":       p.topic,
	}).Info("Model event published")
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
