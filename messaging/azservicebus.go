package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/bahmni/consultation/lib/logging"
	"github.com/rs/zerolog/log"
)

const (
	serviceBusReceiveBackoff = time.Minute
	serviceBusIdleWait       = time.Second
)

var _ Broker = &AzureServiceBusBroker{}

// AzureServiceBusConfig configures the Azure Service Bus namespace messages are published to.
// Either Hostname (authenticating with the default Azure credential) or ConnectionString must be set.
type AzureServiceBusConfig struct {
	Hostname         string `koanf:"hostname"`
	ConnectionString string `koanf:"connectionstring"`
	// SubscriptionName is the topic subscription this instance receives messages from.
	SubscriptionName string `koanf:"subscriptionname"`
}

func (a AzureServiceBusConfig) Enabled() bool {
	return a.Hostname != "" || a.ConnectionString != ""
}

func (a AzureServiceBusConfig) newClient() (*azservicebus.Client, error) {
	if a.ConnectionString != "" {
		return azservicebus.NewClientFromConnectionString(a.ConnectionString, nil)
	}
	if a.Hostname == "" {
		return nil, errors.New("configuration is missing hostname or connection string")
	}
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(a.Hostname, credential, nil)
}

// newAzureServiceBusBroker creates a sender for each of the topics up front. Sending to any other topic fails.
func newAzureServiceBusBroker(conf AzureServiceBusConfig, topics []Topic, topicPrefix string) (*AzureServiceBusBroker, error) {
	client, err := conf.newClient()
	if err != nil {
		return nil, err
	}
	broker := &AzureServiceBusBroker{
		client:           client,
		senders:          make(map[string]*azservicebus.Sender, len(topics)),
		topicPrefix:      topicPrefix,
		subscriptionName: conf.SubscriptionName,
	}
	broker.ctx, broker.ctxCancel = context.WithCancel(context.Background())
	for _, topic := range topics {
		fullName := topic.FullName(topicPrefix)
		sender, err := client.NewSender(fullName, nil)
		if err != nil {
			_ = broker.Close(context.Background())
			return nil, fmt.Errorf("create sender (topic=%s): %w", fullName, err)
		}
		broker.senders[topic.Name] = sender
	}
	return broker, nil
}

// AzureServiceBusBroker is a Broker on Azure Service Bus topics.
// Messages are received through the configured subscription of each topic.
type AzureServiceBusBroker struct {
	client           *azservicebus.Client
	topicPrefix      string
	subscriptionName string

	sendersMux sync.RWMutex
	senders    map[string]*azservicebus.Sender

	ctx       context.Context
	ctxCancel context.CancelFunc
	receivers sync.WaitGroup
}

// SendMessage sends the message to the topic. The topic must be one of the topics the broker was created with.
func (c *AzureServiceBusBroker) SendMessage(ctx context.Context, topic Topic, message *Message) error {
	c.sendersMux.RLock()
	defer c.sendersMux.RUnlock()
	sender, ok := c.senders[topic.Name]
	if !ok {
		return fmt.Errorf("AzureServiceBus: sender not found (topic=%s)", topic.Name)
	}
	return sender.SendMessage(ctx, &azservicebus.Message{
		Body:          message.Body,
		ContentType:   &message.ContentType,
		CorrelationID: message.CorrelationID,
	}, nil)
}

func (c *AzureServiceBusBroker) Receive(topic Topic, handler func(context.Context, Message) error) error {
	if c.subscriptionName == "" {
		return errors.New("AzureServiceBus: subscription name is not configured")
	}
	fullName := topic.FullName(c.topicPrefix)
	receiver, err := c.client.NewReceiverForSubscription(fullName, c.subscriptionName, nil)
	if err != nil {
		return fmt.Errorf("AzureServiceBus: create receiver (topic=%s, subscription=%s): %w", fullName, c.subscriptionName, err)
	}
	c.receivers.Add(1)
	go func() {
		defer c.receivers.Done()
		defer receiver.Close(context.Background())
		c.receiveLoop(receiver, fullName, handler)
	}()
	return nil
}

func (c *AzureServiceBusBroker) receiveLoop(receiver *azservicebus.Receiver, fullName string, handler func(context.Context, Message) error) {
	logger := log.With().Str(logging.FieldTopic, fullName).Logger()
	for c.ctx.Err() == nil {
		received, err := receiver.ReceiveMessages(c.ctx, 1, nil)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Err(err).Msgf("AzureServiceBus: receive message failed, backing off for %s", serviceBusReceiveBackoff)
			}
			if !c.wait(serviceBusReceiveBackoff) {
				return
			}
			continue
		}
		if len(received) == 0 {
			if !c.wait(serviceBusIdleWait) {
				return
			}
			continue
		}
		c.handle(logger.WithContext(c.ctx), receiver, received[0], handler)
	}
}

// handle completes the message if the handler succeeds, otherwise it is abandoned so it gets redelivered.
func (c *AzureServiceBusBroker) handle(ctx context.Context, receiver *azservicebus.Receiver, received *azservicebus.ReceivedMessage, handler func(context.Context, Message) error) {
	message := Message{
		Body:          received.Body,
		CorrelationID: received.CorrelationID,
	}
	if received.ContentType != nil {
		message.ContentType = *received.ContentType
	}
	if err := handler(ctx, message); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msgf("AzureServiceBus: message handler failed, message will be redelivered (delivery=%d)", received.DeliveryCount)
		if err := receiver.AbandonMessage(ctx, received, &azservicebus.AbandonMessageOptions{
			PropertiesToModify: map[string]any{
				"deliveryfailure-" + strconv.Itoa(int(received.DeliveryCount)): err.Error(),
			},
		}); err != nil {
			log.Ctx(ctx).Err(err).Msg("AzureServiceBus: abandon message (for redelivery) failed")
		}
		return
	}
	if err := receiver.CompleteMessage(ctx, received, nil); err != nil {
		log.Ctx(ctx).Err(err).Msg("AzureServiceBus: complete message failed")
	}
}

// wait blocks for the given duration, returning false if the broker is closed in the meantime.
func (c *AzureServiceBusBroker) wait(duration time.Duration) bool {
	select {
	case <-c.ctx.Done():
		return false
	case <-time.After(duration):
		return true
	}
}

// Close stops all receivers, then closes the senders and the client. All close failures are returned.
func (c *AzureServiceBusBroker) Close(ctx context.Context) error {
	log.Ctx(ctx).Debug().Msg("AzureServiceBus: closing...")
	c.ctxCancel()
	c.receivers.Wait()

	c.sendersMux.Lock()
	defer c.sendersMux.Unlock()
	var errs []error
	for topic, sender := range c.senders {
		if err := sender.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close sender (topic=%s): %w", topic, err))
		}
		delete(c.senders, topic)
	}
	if err := c.client.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close client: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{errors.New("azure service bus: close() failures")}, errs...)...)
	}
	log.Ctx(ctx).Debug().Msg("AzureServiceBus: closed")
	return nil
}
