package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bahmni/consultation/events"
	"github.com/bahmni/consultation/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestService_DispatchConsultationSaved(t *testing.T) {
	event := ConsultationSaved{
		ConsultationID:     "consultation-1",
		PatientUUID:        "patient-1",
		EncounterReference: "Encounter/enc-1",
		UpdatedResources:   UpdatedResources{Conditions: true, Medications: true},
	}

	t.Run("relayed to the patient's stream", func(t *testing.T) {
		stream := NewStream()
		service, err := New(events.NewManager(messaging.NewMemoryBroker()), stream)
		require.NoError(t, err)
		sub := stream.subscribe("patient-1")
		defer stream.unsubscribe(sub)

		err = service.DispatchConsultationSaved(context.Background(), event)

		require.NoError(t, err)
		var received ConsultationSaved
		require.NoError(t, json.Unmarshal([]byte((<-sub.notices).data), &received))
		assert.Equal(t, event, received)
	})
	t.Run("wire format", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		broker := messaging.NewMockBroker(ctrl)
		broker.EXPECT().Receive(ConsultationSavedTopic, gomock.Any()).Return(nil)
		broker.EXPECT().SendMessage(gomock.Any(), ConsultationSavedTopic, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ messaging.Topic, message *messaging.Message) error {
				assert.JSONEq(t, `{
					"consultationID": "consultation-1",
					"patientUUID": "patient-1",
					"encounterReference": "Encounter/enc-1",
					"updatedResources": {"conditions": true, "allergies": false, "serviceRequests": false, "medications": true}
				}`, string(message.Body))
				assert.Equal(t, "consultation-1", *message.CorrelationID)
				return nil
			})
		service, err := New(events.NewManager(broker), NewStream())
		require.NoError(t, err)

		require.NoError(t, service.DispatchConsultationSaved(context.Background(), event))
	})
	t.Run("broker fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		broker := messaging.NewMockBroker(ctrl)
		broker.EXPECT().Receive(gomock.Any(), gomock.Any()).Return(nil)
		broker.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("unavailable"))
		service, err := New(events.NewManager(broker), NewStream())
		require.NoError(t, err)

		err = service.DispatchConsultationSaved(context.Background(), event)

		require.ErrorContains(t, err, "unavailable")
	})
}

func TestNew_SubscribeFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	broker := messaging.NewMockBroker(ctrl)
	broker.EXPECT().Receive(gomock.Any(), gomock.Any()).Return(errors.New("no subscription"))

	_, err := New(events.NewManager(broker), NewStream())

	require.EqualError(t, err, "subscribe to consultation-saved: no subscription")
}

func TestService_EventManager(t *testing.T) {
	ctrl := gomock.NewController(t)
	eventManager := events.NewMockManager(ctrl)
	var handler events.HandleFunc
	eventManager.EXPECT().Subscribe(ConsultationSaved{}, gomock.Any()).
		DoAndReturn(func(_ events.Type, h events.HandleFunc) error {
			handler = h
			return nil
		})
	stream := NewStream()
	service, err := New(eventManager, stream)
	require.NoError(t, err)
	require.NotNil(t, handler)
	event := ConsultationSaved{ConsultationID: "consultation-1", PatientUUID: "patient-1"}

	t.Run("dispatch notifies the event manager", func(t *testing.T) {
		eventManager.EXPECT().Notify(gomock.Any(), event).Return(nil)

		require.NoError(t, service.DispatchConsultationSaved(context.Background(), event))
	})
	t.Run("received events are relayed to the patient's stream", func(t *testing.T) {
		sub := stream.subscribe("patient-1")
		defer stream.unsubscribe(sub)

		require.NoError(t, handler(context.Background(), &event))

		assert.Contains(t, (<-sub.notices).data, `"consultationID":"consultation-1"`)
	})
	t.Run("unexpected event type", func(t *testing.T) {
		err := handler(context.Background(), events.NewMockType(ctrl))
		require.ErrorContains(t, err, "unexpected event type")
	})
}

func TestService_handleConsultationSaved(t *testing.T) {
	service := &Service{stream: NewStream()}

	t.Run("missing patient", func(t *testing.T) {
		err := service.handleConsultationSaved(context.Background(), &ConsultationSaved{})
		require.EqualError(t, err, "consultation-saved: patientUUID is missing")
	})
}

func TestUpdatedResources_Any(t *testing.T) {
	assert.False(t, UpdatedResources{}.Any())
	assert.True(t, UpdatedResources{Allergies: true}.Any())
}
