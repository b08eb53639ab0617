package queue

import (
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/common/logging"
)

// KafkaProducer publishes messages with an idempotent producer and blocks
// until the broker acknowledges delivery, bounded by the flush timeout.
type KafkaProducer struct {
	producer *kafka.Producer
	config   *Config
	logger   logging.Logger
}

// NewProducer creates a connected Kafka producer.
func NewProducer(config *Config, logger logging.Logger) (*KafkaProducer, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError("invalid Kafka config: " + err.Error())
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	kafkaConfig := kafka.ConfigMap{
		"bootstrap.servers":                     config.GetConnectionString(),
		"client.id":                             config.ClientID,
		"acks":                                  "all",
		"enable.idempotence":                    true,
		"retries":                               3,
		"max.in.flight.requests.per.connection": 5,
		"compression.type":                      "gzip",
		"linger.ms":                             10,
	}
	config.appendSecurity(kafkaConfig)

	producer, err := kafka.NewProducer(&kafkaConfig)
	if err != nil {
		return nil, errors.ConnectionError("failed to create Kafka producer", err)
	}

	return &KafkaProducer{
		producer: producer,
		config:   config,
		logger:   logger,
	}, nil
}

// Publish sends one keyed message and waits for the delivery report.
// A report that does not arrive within the flush timeout is a publish
// failure; the caller decides whether to surface it as retryable.
func (p *KafkaProducer) Publish(topic, key string, value []byte) error {
	kafkaMsg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:       []byte(key),
		Value:     value,
		Timestamp: time.Now(),
	}

	deliveryChan := make(chan kafka.Event, 1)
	if err := p.producer.Produce(kafkaMsg, deliveryChan); err != nil {
		return errors.ConnectionError("failed to produce message", err)
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return errors.InternalError("unexpected delivery event", nil)
		}
		if m.TopicPartition.Error != nil {
			return errors.ConnectionError("delivery failed", m.TopicPartition.Error)
		}

		p.logger.Debug("Message delivered",
			logging.Field{Key: "topic", Value: topic},
			logging.Field{Key: "partition", Value: m.TopicPartition.Partition},
			logging.Field{Key: "offset", Value: m.TopicPartition.Offset},
		)
		return nil

	case <-time.After(p.config.FlushTimeout):
		return errors.TimeoutError("kafka publish to " + topic)
	}
}

// Close flushes outstanding messages and releases the producer.
func (p *KafkaProducer) Close() {
	p.producer.Flush(int(p.config.FlushTimeout.Milliseconds()))
	p.producer.Close()
}
