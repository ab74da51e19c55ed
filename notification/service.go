//go:generate mockgen -destination=./service_mock.go -package=notification -source=service.go
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bahmni/consultation/events"
	"github.com/bahmni/consultation/lib/logging"
	"github.com/rs/zerolog/log"
)

// Dispatcher announces saved consultations.
type Dispatcher interface {
	DispatchConsultationSaved(ctx context.Context, event ConsultationSaved) error
}

var _ Dispatcher = &Service{}

// New creates the notification service and subscribes it to ConsultationSaved events,
// which are relayed to the SSE clients of the patient.
func New(eventManager events.Manager, stream *Stream) (*Service, error) {
	service := &Service{
		eventManager: eventManager,
		stream:       stream,
	}
	if err := eventManager.Subscribe(ConsultationSaved{}, service.handleConsultationSaved); err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", ConsultationSavedTopic.Name, err)
	}
	return service, nil
}

type Service struct {
	eventManager events.Manager
	stream       *Stream
}

func (s *Service) DispatchConsultationSaved(ctx context.Context, event ConsultationSaved) error {
	log.Ctx(ctx).Debug().
		Str(logging.FieldPatient, event.PatientUUID).
		Str(logging.FieldEncounterRef, event.EncounterReference).
		Msg("Dispatching ConsultationSaved")
	return s.eventManager.Notify(ctx, event)
}

func (s *Service) handleConsultationSaved(ctx context.Context, event events.Type) error {
	saved, ok := event.(*ConsultationSaved)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", event)
	}
	if saved.PatientUUID == "" {
		return fmt.Errorf("%s: patientUUID is missing", ConsultationSavedTopic.Name)
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	s.stream.Publish(ctx, saved.PatientUUID, string(data))
	return nil
}

func (s *Service) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /consultation/events/{patient}", func(writer http.ResponseWriter, request *http.Request) {
		s.stream.ServeHTTP(request.PathValue("patient"), writer, request)
	})
}
