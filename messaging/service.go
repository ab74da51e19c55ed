//go:generate mockgen -destination=./service_mock.go -package=messaging -source=service.go
package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// New creates the broker for the configured messaging system. Without configuration, messages are delivered in-memory.
// When an HTTP endpoint is configured, messages are additionally POSTed to it.
func New(config Config, topics []Topic) (Broker, error) {
	var broker Broker
	var err error
	switch {
	case config.AzureServiceBus.Enabled():
		log.Info().Msg("Messaging: using Azure Service Bus")
		broker, err = newAzureServiceBusBroker(config.AzureServiceBus, topics, config.TopicPrefix)
		if err != nil {
			return nil, fmt.Errorf("azure service bus: %w", err)
		}
	case config.Kafka.Enabled():
		log.Info().Msgf("Messaging: using Kafka (brokers=%v)", config.Kafka.Brokers)
		broker, err = NewKafkaBroker(config.Kafka, config.TopicPrefix)
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
	default:
		broker = NewMemoryBroker()
	}
	if config.HTTP.Endpoint != "" {
		log.Info().Msgf("Messaging: sending messages over HTTP to %s", config.HTTP.Endpoint)
		broker = NewHTTPBroker(config.HTTP, broker)
	}
	return broker, nil
}

// Config holds the configuration for messaging.
type Config struct {
	// TopicPrefix is prepended to all topic names, e.g. to separate environments sharing a broker.
	TopicPrefix string `koanf:"topicprefix"`
	// AzureServiceBus holds the configuration for messaging using Azure ServiceBus.
	AzureServiceBus AzureServiceBusConfig `koanf:"azureservicebus"`
	Kafka           KafkaConfig           `koanf:"kafka"`
	HTTP            HTTPBrokerConfig      `koanf:"http"`
}

func (c Config) Validate() error {
	if c.AzureServiceBus.Enabled() && c.Kafka.Enabled() {
		return errors.New("only one of Azure ServiceBus and Kafka can be configured")
	}
	if c.Kafka.Enabled() && c.Kafka.ConsumerGroup == "" {
		return errors.New("kafka consumer group is not configured")
	}
	return nil
}

// Topic is a named destination for messages.
type Topic struct {
	Name string
}

// FullName returns the name of the topic on the broker.
func (t Topic) FullName(prefix string) string {
	return prefix + t.Name
}

type Message struct {
	Body          []byte
	ContentType   string
	CorrelationID *string
}

// Broker defines an interface for interacting with a message broker, including sending and receiving messages and closing connections.
type Broker interface {
	Close(ctx context.Context) error
	SendMessage(ctx context.Context, topic Topic, message *Message) error
	// Receive registers a handler for messages on the topic. Messages are handled asynchronously.
	Receive(topic Topic, handler func(context.Context, Message) error) error
}
