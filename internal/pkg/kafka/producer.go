package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ds124wfegd/image-analyser/config"
	"github.com/ds124wfegd/image-analyser/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// EventPublisher sends analysis events to the event stream. Publishing is best
// effort: callers log the error and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.AnalysisEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewEventPublisher returns a kafka backed publisher, or a logging one when
// kafka is disabled or cannot be reached.
func NewEventPublisher(cfg config.KafkaConfig) EventPublisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logrus.Info("Kafka events disabled, using mock publisher")
		return &mockPublisher{}
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	// Проверяем подключение и создаем топик
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		logrus.WithError(err).Warn("Kafka connection failed, using mock publisher instead")
		return &mockPublisher{}
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.WithError(err).Info("Could not create topic (might already exist)")
	}

	logrus.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Info("Connected to Kafka")

	return newKafkaPublisher(writer, cfg.Topic)
}

func newKafkaPublisher(writer messageWriter, topic string) *kafkaPublisher {
	return &kafkaPublisher{writer: writer, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event entity.AnalysisEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.ImageID),
		Value: value,
		Time:  event.OccurredAt,
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"topic":    p.topic,
		"image_id": event.ImageID,
	}).Debug("Analysis event sent")
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// mockPublisher для работы без Kafka
type mockPublisher struct{}

func (m *mockPublisher) Publish(_ context.Context, event entity.AnalysisEvent) error {
	logrus.WithFields(logrus.Fields{
		"image_id": event.ImageID,
		"success":  event.Success,
		"code":     event.Code,
	}).Debug("MOCK: analysis event")
	return nil
}

func (m *mockPublisher) Close() error {
	return nil
}
