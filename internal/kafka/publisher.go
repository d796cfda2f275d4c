package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// SubscriptionEvent представляет событие подписки для Kafka
type SubscriptionEvent struct {
	ID         string                    `json:"id"`
	CustomerID string                    `json:"customer_id"`
	PackageID  string                    `json:"package_id"`
	StartDate  time.Time                 `json:"start_date"`
	EndDate    time.Time                 `json:"end_date"`
	Status     domain.SubscriptionStatus `json:"status"`
	Timestamp  time.Time                 `json:"timestamp"`
}

// SubscriptionEventPublisher интерфейс для отправки событий подписок
type SubscriptionEventPublisher interface {
	PublishSubscriptionCreated(ctx context.Context, sub domain.Subscription) error
	Close() error
}

type saramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewSaramaPublisher создает издателя поверх готового SyncProducer
func NewSaramaPublisher(producer sarama.SyncProducer, topic string, log *logger.Logger) SubscriptionEventPublisher {
	return &saramaPublisher{
		producer: producer,
		topic:    topic,
		log:      log,
	}
}

// NewPublisher подключается к брокерам и создает издателя событий
func NewPublisher(cfg *Config, log *logger.Logger) (SubscriptionEventPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	log.Infow("Kafka producer created", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return NewSaramaPublisher(producer, cfg.Topic, log), nil
}

// PublishSubscriptionCreated публикует событие об оформлении подписки
func (p *saramaPublisher) PublishSubscriptionCreated(ctx context.Context, sub domain.Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	event := SubscriptionEvent{
		ID:         sub.ID,
		CustomerID: sub.CustomerID,
		PackageID:  sub.PackageID,
		StartDate:  sub.StartDate,
		EndDate:    sub.EndDate,
		Status:     sub.Status,
		Timestamp:  now,
	}

	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(sub.CustomerID),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(TopicSubscriptionCreated),
			},
		},
		Timestamp: now,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish subscription event: %w", err)
	}

	p.log.Infow("Published subscription event", "topic", p.topic, "partition", partition, "offset", offset)
	return nil
}

// Close закрывает продюсер
func (p *saramaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher используется, когда Kafka отключена
type NoopPublisher struct{}

// PublishSubscriptionCreated ничего не делает
func (NoopPublisher) PublishSubscriptionCreated(context.Context, domain.Subscription) error {
	return nil
}

// Close ничего не делает
func (NoopPublisher) Close() error { return nil }
