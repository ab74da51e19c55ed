package notification

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bahmni/consultation/lib/logging"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultKeepAlive is the interval of the comment lines that keep idle streams from being closed by proxies.
	DefaultKeepAlive = 30 * time.Second
	// reconnectDelay is sent to clients as SSE retry field, in milliseconds.
	reconnectDelay   = 3000
	subscriberBuffer = 10
)

type notice struct {
	id   uint64
	data string
}

// subscriber is a single open event stream. A subscriber that doesn't keep up is evicted, its client is expected to reconnect.
type subscriber struct {
	patientUUID string
	notices     chan notice
	evicted     chan struct{}
}

// Stream fans out notifications to server-sent events (SSE) clients. Clients subscribe to the stream of a single patient.
type Stream struct {
	keepAlive time.Duration

	mux         sync.Mutex
	lastID      uint64
	subscribers map[string]map[*subscriber]struct{}
}

func NewStream() *Stream {
	return &Stream{
		keepAlive:   DefaultKeepAlive,
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// ServeHTTP streams the notifications of the patient until the request is cancelled or the client is evicted.
func (s *Stream) ServeHTTP(patientUUID string, writer http.ResponseWriter, request *http.Request) {
	flusher, ok := writer.(http.Flusher)
	if !ok {
		http.Error(writer, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "text/event-stream")
	writer.Header().Set("Cache-Control", "no-cache")
	writer.Header().Set("Connection", "keep-alive")
	writer.Header().Set("X-Accel-Buffering", "no")

	sub := s.subscribe(patientUUID)
	defer s.unsubscribe(sub)

	fmt.Fprintf(writer, "retry: %d\n\n", reconnectDelay)
	flusher.Flush()

	ctx := request.Context()
	logger := log.Ctx(ctx).With().Str(logging.FieldPatient, patientUUID).Logger()
	logger.Debug().Msg("Opened notification stream")
	keepAlive := time.NewTicker(s.keepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case n := <-sub.notices:
			fmt.Fprintf(writer, "id: %d\nevent: %s\ndata: %s\n\n", n.id, ConsultationSavedTopic.Name, n.data)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(writer, ": keep-alive\n\n")
			flusher.Flush()
		case <-sub.evicted:
			logger.Info().Msg("Notification stream is not keeping up, closing it")
			return
		case <-ctx.Done():
			logger.Debug().Msg("Closed notification stream")
			return
		}
	}
}

func (s *Stream) subscribe(patientUUID string) *subscriber {
	sub := &subscriber{
		patientUUID: patientUUID,
		notices:     make(chan notice, subscriberBuffer),
		evicted:     make(chan struct{}),
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.subscribers[patientUUID] == nil {
		s.subscribers[patientUUID] = make(map[*subscriber]struct{})
	}
	s.subscribers[patientUUID][sub] = struct{}{}
	return sub
}

// unsubscribe removes the subscriber, if it wasn't evicted already.
func (s *Stream) unsubscribe(sub *subscriber) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.remove(sub)
}

func (s *Stream) remove(sub *subscriber) {
	subs := s.subscribers[sub.patientUUID]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(s.subscribers, sub.patientUUID)
	}
}

// Publish sends the message to all subscribers of the patient. Every message gets the next event ID.
// Subscribers with a full buffer are evicted instead of silently missing the message.
func (s *Stream) Publish(ctx context.Context, patientUUID string, msg string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.lastID++
	n := notice{id: s.lastID, data: msg}
	for sub := range s.subscribers[patientUUID] {
		select {
		case sub.notices <- n:
		default:
			log.Ctx(ctx).Warn().Str(logging.FieldPatient, patientUUID).Msg("Notification subscriber is full, evicting it")
			s.remove(sub)
			close(sub.evicted)
		}
	}
}

// Clients returns the number of connected clients of the patient.
func (s *Stream) Clients(patientUUID string) int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.subscribers[patientUUID])
}
