//go:generate mockgen -destination=./kgo_client_mock.go -package=messaging -source=kafka.go KgoClient
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bahmni/consultation/lib/logging"
	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ Broker = &KafkaBroker{}

type KafkaConfig struct {
	Brokers       []string `koanf:"brokers"`
	ConsumerGroup string   `koanf:"consumergroup"`
	ClientID      string   `koanf:"clientid"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// KgoClient is the subset of kgo.Client used by the broker.
type KgoClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	PollFetches(ctx context.Context) kgo.Fetches
	Close()
}

// NewKafkaBroker creates a broker on Kafka. Every Receive call starts a consumer in the configured consumer group.
func NewKafkaBroker(config KafkaConfig, topicPrefix string) (*KafkaBroker, error) {
	opts := config.clientOpts()
	producer, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &KafkaBroker{
		producer:    producer,
		topicPrefix: topicPrefix,
		newConsumer: func(topic string) (KgoClient, error) {
			return kgo.NewClient(append(config.clientOpts(),
				kgo.ConsumerGroup(config.ConsumerGroup),
				kgo.ConsumeTopics(topic),
			)...)
		},
		ctx:       ctx,
		ctxCancel: cancel,
	}, nil
}

func (k KafkaConfig) clientOpts() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(k.Brokers...),
		kgo.ProducerBatchCompression(kgo.NoCompression()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if k.ClientID != "" {
		opts = append(opts, kgo.ClientID(k.ClientID))
	}
	return opts
}

type KafkaBroker struct {
	producer    KgoClient
	topicPrefix string
	newConsumer func(topic string) (KgoClient, error)

	mux       sync.Mutex
	consumers []KgoClient
	ctx       context.Context
	ctxCancel context.CancelFunc
	receivers sync.WaitGroup
}

// SendMessage produces the message to the topic and waits until it has been acknowledged.
func (k *KafkaBroker) SendMessage(ctx context.Context, topic Topic, message *Message) error {
	record := &kgo.Record{
		Topic: topic.FullName(k.topicPrefix),
		Value: message.Body,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte(message.ContentType)},
		},
	}
	if message.CorrelationID != nil {
		record.Key = []byte(*message.CorrelationID)
	}
	if err := k.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce (topic=%s): %w", record.Topic, err)
	}
	return nil
}

func (k *KafkaBroker) Receive(topic Topic, handler func(context.Context, Message) error) error {
	fullName := topic.FullName(k.topicPrefix)
	consumer, err := k.newConsumer(fullName)
	if err != nil {
		return fmt.Errorf("kafka: create consumer (topic=%s): %w", fullName, err)
	}
	k.mux.Lock()
	k.consumers = append(k.consumers, consumer)
	k.mux.Unlock()

	k.receivers.Add(1)
	go func() {
		defer k.receivers.Done()
		for k.ctx.Err() == nil {
			fetches := consumer.PollFetches(k.ctx)
			if fetches.IsClientClosed() {
				return
			}
			for _, fetchErr := range fetches.Errors() {
				if errors.Is(fetchErr.Err, context.Canceled) {
					return
				}
				log.Ctx(k.ctx).Err(fetchErr.Err).Str(logging.FieldTopic, fetchErr.Topic).Msg("Kafka: fetch failed")
				select {
				case <-k.ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
			}
			fetches.EachRecord(func(record *kgo.Record) {
				message := Message{Body: record.Value}
				for _, header := range record.Headers {
					if header.Key == "content-type" {
						message.ContentType = string(header.Value)
					}
				}
				if len(record.Key) > 0 {
					correlationID := string(record.Key)
					message.CorrelationID = &correlationID
				}
				if err := handler(k.ctx, message); err != nil {
					log.Ctx(k.ctx).Warn().Err(err).Str(logging.FieldTopic, record.Topic).Msgf("Kafka: message handler failed (offset=%d)", record.Offset)
				}
			})
		}
	}()
	return nil
}

func (k *KafkaBroker) Close(ctx context.Context) error {
	log.Ctx(ctx).Debug().Msg("Kafka: closing...")
	k.ctxCancel()
	k.mux.Lock()
	for _, consumer := range k.consumers {
		consumer.Close()
	}
	k.consumers = nil
	k.mux.Unlock()
	k.receivers.Wait()
	k.producer.Close()
	log.Ctx(ctx).Debug().Msg("Kafka: closed")
	return nil
}
