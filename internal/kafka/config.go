package kafka

import (
	"time"

	"github.com/IBM/sarama"

	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// TopicSubscriptionCreated топик событий об оформленных подписках
const TopicSubscriptionCreated = "subscription.created"

// Config конфигурация для Kafka
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
	Producer ProducerConfig
}

// ProducerConfig конфигурация для продюсера
type ProducerConfig struct {
	MaxMessageBytes  int
	Compression      sarama.CompressionCodec
	RequiredAcks     sarama.RequiredAcks
	FlushMaxMessages int
	Timeout          time.Duration
	RetryMax         int
}

// NewConfig создает новую конфигурацию Kafka
func NewConfig(brokers []string, topic string) *Config {
	if topic == "" {
		topic = TopicSubscriptionCreated
	}
	return &Config{
		Brokers:  brokers,
		Topic:    topic,
		ClientID: "primeconnect-dashboard",
		Producer: ProducerConfig{
			MaxMessageBytes:  1000000,
			Compression:      sarama.CompressionSnappy,
			RequiredAcks:     sarama.WaitForAll,
			FlushMaxMessages: 100,
			Timeout:          5 * time.Second,
			RetryMax:         3,
		},
	}
}

// NewSaramaConfig создает новую конфигурацию Sarama
func NewSaramaConfig(cfg *Config, log *logger.Logger) *sarama.Config {
	saramaConfig := sarama.NewConfig()

	// Версия Kafka
	saramaConfig.Version = sarama.V3_3_0_0
	saramaConfig.ClientID = cfg.ClientID

	// Настройки продюсера
	saramaConfig.Producer.MaxMessageBytes = cfg.Producer.MaxMessageBytes
	saramaConfig.Producer.Compression = cfg.Producer.Compression
	saramaConfig.Producer.RequiredAcks = cfg.Producer.RequiredAcks
	saramaConfig.Producer.Flush.MaxMessages = cfg.Producer.FlushMaxMessages
	saramaConfig.Producer.Timeout = cfg.Producer.Timeout
	saramaConfig.Producer.Retry.Max = cfg.Producer.RetryMax
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	log.Debugw("Sarama producer configured", "clientID", cfg.ClientID, "acks", cfg.Producer.RequiredAcks)
	return saramaConfig
}
