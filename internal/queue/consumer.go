package queue

import (
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/common/logging"
)

// KafkaConsumer polls one topic with auto-commit disabled. Offsets move
// only through Commit, which the worker calls after a terminal outcome.
type KafkaConsumer struct {
	consumer *kafka.Consumer
	topic    string
	logger   logging.Logger
}

// NewConsumer creates a consumer subscribed to topic.
func NewConsumer(config *Config, topic string, logger logging.Logger) (*KafkaConsumer, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError("invalid Kafka config: " + err.Error())
	}
	if topic == "" {
		return nil, errors.ConfigError("consumer topic is required")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	kafkaConfig := kafka.ConfigMap{
		"bootstrap.servers":    config.GetConnectionString(),
		"client.id":            config.ClientID + "-consumer",
		"group.id":             config.GroupID,
		"enable.auto.commit":   false,
		"auto.offset.reset":    "earliest",
		"session.timeout.ms":   6000,
		"max.poll.interval.ms": 300000,
	}
	config.appendSecurity(kafkaConfig)

	consumer, err := kafka.NewConsumer(&kafkaConfig)
	if err != nil {
		return nil, errors.ConnectionError("failed to create Kafka consumer", err)
	}

	if err := consumer.SubscribeTopics([]string{topic}, nil); err != nil {
		consumer.Close()
		return nil, errors.ConnectionError("failed to subscribe to topic "+topic, err)
	}

	return &KafkaConsumer{
		consumer: consumer,
		topic:    topic,
		logger:   logger,
	}, nil
}

// Poll waits up to timeout for one message. Returns (nil, nil) when the
// poll times out or the broker reports a recoverable error; a fatal broker
// error is returned so the process can exit and be restarted.
func (c *KafkaConsumer) Poll(timeout time.Duration) (*Message, error) {
	ev := c.consumer.Poll(int(timeout.Milliseconds()))

	switch e := ev.(type) {
	case nil:
		return nil, nil

	case *kafka.Message:
		msg := &Message{
			Topic:     c.topic,
			Partition: e.TopicPartition.Partition,
			Offset:    int64(e.TopicPartition.Offset),
			Key:       e.Key,
			Value:     e.Value,
			Timestamp: e.Timestamp,
			raw:       e,
		}
		if e.TopicPartition.Topic != nil {
			msg.Topic = *e.TopicPartition.Topic
		}
		return msg, nil

	case kafka.Error:
		if e.IsFatal() {
			return nil, errors.ConnectionError("fatal Kafka consumer error", e)
		}
		c.logger.Warn("Kafka consumer error",
			logging.Field{Key: "code", Value: e.Code().String()},
			logging.Field{Key: "error", Value: e.Error()},
		)
		return nil, nil

	default:
		return nil, nil
	}
}

// Commit durably advances the consumer offset past msg.
func (c *KafkaConsumer) Commit(msg *Message) error {
	if msg == nil || msg.raw == nil {
		return errors.InternalError("cannot commit a message without broker metadata", nil)
	}

	if _, err := c.consumer.CommitMessage(msg.raw); err != nil {
		return errors.ConnectionError("failed to commit offset", err)
	}
	return nil
}

// Close leaves the consumer group cleanly.
func (c *KafkaConsumer) Close() error {
	return c.consumer.Close()
}
