//go:generate mockgen -destination=./manager_mock.go -package=events -source=manager.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bahmni/consultation/messaging"
)

// Type is an event that is published on a messaging topic.
type Type interface {
	Topic() messaging.Topic
	// Instance returns a pointer to a new, empty event of the same type to unmarshal into.
	Instance() Type
}

// Correlated events carry an ID that is set as correlation ID on the published message.
type Correlated interface {
	CorrelationID() string
}

type Manager interface {
	Subscribe(eventType Type, handler HandleFunc) error
	Notify(ctx context.Context, instance Type) error
	HasSubscribers(eventType Type) bool
}

func NewManager(messageBroker messaging.Broker) *DefaultManager {
	return &DefaultManager{
		messageBroker: messageBroker,
		subscribers:   map[string]int{},
	}
}

var _ Manager = &DefaultManager{}

type DefaultManager struct {
	messageBroker messaging.Broker
	mux           sync.RWMutex
	subscribers   map[string]int
}

func (d *DefaultManager) HasSubscribers(eventType Type) bool {
	d.mux.RLock()
	defer d.mux.RUnlock()
	return d.subscribers[eventType.Topic().Name] > 0
}

func (d *DefaultManager) Subscribe(eventType Type, handler HandleFunc) error {
	err := d.messageBroker.Receive(eventType.Topic(), func(ctx context.Context, message messaging.Message) error {
		event := eventType.Instance()
		if err := json.Unmarshal(message.Body, event); err != nil {
			return fmt.Errorf("event %T unmarshal: %w", eventType, err)
		}
		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("event handler %T: %w", event, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.mux.Lock()
	d.subscribers[eventType.Topic().Name]++
	d.mux.Unlock()
	return nil
}

func (d *DefaultManager) Notify(ctx context.Context, instance Type) error {
	messageData, err := json.Marshal(instance)
	if err != nil {
		return err
	}
	message := &messaging.Message{
		Body:        messageData,
		ContentType: "application/json",
	}
	if correlated, ok := instance.(Correlated); ok {
		correlationID := correlated.CorrelationID()
		message.CorrelationID = &correlationID
	}
	if err = d.messageBroker.SendMessage(ctx, instance.Topic(), message); err != nil {
		return fmt.Errorf("event send %T: %w", instance, err)
	}
	return nil
}

type HandleFunc func(ctx context.Context, event Type) error
