package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// Config holds Kafka connection settings shared by producer and consumer.
type Config struct {
	Brokers          []string
	ClientID         string
	GroupID          string
	SecurityProtocol string
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     string
	FlushTimeout     time.Duration
}

// Validate checks the config and fills in defaults.
func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("Kafka brokers are required")
	}

	for _, broker := range c.Brokers {
		if broker == "" {
			return fmt.Errorf("empty Kafka broker address")
		}
	}

	if c.ClientID == "" {
		c.ClientID = "user-enrichment"
	}

	if c.GroupID == "" {
		c.GroupID = "user-enrichment-workers"
	}

	if c.FlushTimeout <= 0 {
		c.FlushTimeout = 10 * time.Second
	}

	if c.SecurityProtocol == "" {
		c.SecurityProtocol = "PLAINTEXT"
	}

	validProtocols := []string{"PLAINTEXT", "SSL", "SASL_PLAINTEXT", "SASL_SSL"}
	valid := false
	for _, protocol := range validProtocols {
		if c.SecurityProtocol == protocol {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid security protocol: %s", c.SecurityProtocol)
	}

	if strings.HasPrefix(c.SecurityProtocol, "SASL_") {
		if c.SASLMechanism == "" {
			c.SASLMechanism = "PLAIN"
		}

		validMechanisms := []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"}
		valid := false
		for _, mechanism := range validMechanisms {
			if c.SASLMechanism == mechanism {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid SASL mechanism: %s", c.SASLMechanism)
		}

		if c.SASLUsername == "" || c.SASLPassword == "" {
			return fmt.Errorf("SASL username and password are required for SASL authentication")
		}
	}

	return nil
}

// GetConnectionString returns the broker list as a single string.
func (c *Config) GetConnectionString() string {
	return strings.Join(c.Brokers, ",")
}

// DefaultConfig returns a local single-broker configuration.
func DefaultConfig() *Config {
	return &Config{
		Brokers:          []string{"localhost:9092"},
		ClientID:         "user-enrichment",
		GroupID:          "user-enrichment-workers",
		SecurityProtocol: "PLAINTEXT",
		FlushTimeout:     10 * time.Second,
	}
}

// appendSecurity adds the shared security settings to a kafka config map.
func (c *Config) appendSecurity(kafkaConfig kafka.ConfigMap) {
	if c.SecurityProtocol != "PLAINTEXT" {
		kafkaConfig["security.protocol"] = c.SecurityProtocol
	}

	if strings.HasPrefix(c.SecurityProtocol, "SASL_") {
		kafkaConfig["sasl.mechanism"] = c.SASLMechanism
		kafkaConfig["sasl.username"] = c.SASLUsername
		kafkaConfig["sasl.password"] = c.SASLPassword
	}
}
