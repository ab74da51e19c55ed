package messaging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bahmni/consultation/lib/logging"
	"github.com/rs/zerolog/log"
)

var _ Broker = &MemoryBroker{}

type handlerFunc = func(context.Context, Message) error

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		handlers: make(map[string][]handlerFunc),
	}
}

// MemoryBroker delivers messages to the handlers registered in the same process, synchronously.
type MemoryBroker struct {
	mux      sync.RWMutex
	handlers map[string][]handlerFunc
	// LastHandlerError holds the most recent error returned by a handler.
	LastHandlerError atomic.Pointer[error]
}

func (m *MemoryBroker) Receive(topic Topic, handler func(context.Context, Message) error) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.handlers[topic.Name] = append(m.handlers[topic.Name], handler)
	return nil
}

// SendMessage invokes every handler of the topic. A failing handler does not fail the send, nor does it stop other handlers.
// Handlers get a context that is not cancelled with the sender's, but carries the sender's logger.
func (m *MemoryBroker) SendMessage(ctx context.Context, topic Topic, message *Message) error {
	m.mux.RLock()
	handlers := m.handlers[topic.Name]
	m.mux.RUnlock()
	if len(handlers) == 0 {
		return fmt.Errorf("no handlers for topic %s", topic.Name)
	}
	handlerCtx := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		if err := handler(handlerCtx, *message); err != nil {
			m.LastHandlerError.Store(&err)
			log.Ctx(ctx).Warn().Err(err).Str(logging.FieldTopic, topic.Name).Msg("Handler for topic failed")
		}
	}
	return nil
}

func (m *MemoryBroker) Close(_ context.Context) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.handlers = make(map[string][]handlerFunc)
	return nil
}
