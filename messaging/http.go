package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/bahmni/consultation/lib/logging"
	"github.com/rs/zerolog/log"
)

// CorrelationIDHeader carries the message correlation ID on HTTP deliveries.
const CorrelationIDHeader = "X-Correlation-ID"

var _ Broker = &HTTPBroker{}

type HTTPBrokerConfig struct {
	Endpoint string `koanf:"endpoint"`
	// TopicFilter lists the topics that are delivered over HTTP. If empty, all topics are delivered.
	TopicFilter []string `koanf:"topicfilter"`
}

// NewHTTPBroker creates a broker that POSTs messages to <endpoint>/<topic>, then passes them on to the underlying broker (if any).
// Receiving is delegated to the underlying broker.
func NewHTTPBroker(config HTTPBrokerConfig, underlyingBroker Broker) *HTTPBroker {
	return &HTTPBroker{
		underlyingBroker: underlyingBroker,
		endpoint:         config.Endpoint,
		topicFilter:      config.TopicFilter,
		client:           &http.Client{Timeout: 5 * time.Second},
	}
}

type HTTPBroker struct {
	underlyingBroker Broker
	endpoint         string
	topicFilter      []string
	client           *http.Client
}

func (h HTTPBroker) Receive(topic Topic, handler func(context.Context, Message) error) error {
	if h.underlyingBroker == nil {
		return nil
	}
	return h.underlyingBroker.Receive(topic, handler)
}

func (h HTTPBroker) Close(ctx context.Context) error {
	if h.underlyingBroker == nil {
		return nil
	}
	return h.underlyingBroker.Close(ctx)
}

// SendMessage delivers the message over HTTP and to the underlying broker. Both are attempted, even if one fails.
func (h HTTPBroker) SendMessage(ctx context.Context, topic Topic, message *Message) error {
	var errs []error
	if h.accepts(topic) {
		if err := h.post(ctx, topic, message); err != nil {
			errs = append(errs, fmt.Errorf("HTTP delivery (topic=%s): %w", topic.Name, err))
		}
	}
	if h.underlyingBroker != nil {
		if err := h.underlyingBroker.SendMessage(ctx, topic, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h HTTPBroker) accepts(topic Topic) bool {
	return len(h.topicFilter) == 0 || slices.Contains(h.topicFilter, topic.Name)
}

func (h HTTPBroker) post(ctx context.Context, topic Topic, message *Message) error {
	var body bytes.Buffer
	if err := json.Compact(&body, message.Body); err != nil {
		return fmt.Errorf("message body is not JSON: %w", err)
	}
	endpoint, err := url.Parse(h.endpoint)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.JoinPath(topic.Name).String(), &body)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", message.ContentType)
	if message.CorrelationID != nil {
		request.Header.Set(CorrelationIDHeader, *message.CorrelationID)
	}
	response, err := h.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("received non-OK response: %d", response.StatusCode)
	}
	log.Ctx(ctx).Debug().
		Str(logging.FieldTopic, topic.Name).
		Str(logging.FieldEndpoint, request.URL.String()).
		Msg("Message delivered over HTTP")
	return nil
}
