package notification

import (
	"github.com/bahmni/consultation/events"
	"github.com/bahmni/consultation/messaging"
)

var _ events.Type = &ConsultationSaved{}
var _ events.Correlated = &ConsultationSaved{}

var ConsultationSavedTopic = messaging.Topic{Name: "consultation-saved"}

// ConsultationSaved is published after a consultation bundle was accepted by the EHR.
// Read-side widgets use UpdatedResources to decide whether to refetch.
type ConsultationSaved struct {
	ConsultationID     string           `json:"consultationID,omitempty"`
	PatientUUID        string           `json:"patientUUID"`
	EncounterReference string           `json:"encounterReference,omitempty"`
	UpdatedResources   UpdatedResources `json:"updatedResources"`
}

type UpdatedResources struct {
	Conditions      bool `json:"conditions"`
	Allergies       bool `json:"allergies"`
	ServiceRequests bool `json:"serviceRequests"`
	Medications     bool `json:"medications"`
}

// Any reports whether at least one resource category changed.
func (u UpdatedResources) Any() bool {
	return u.Conditions || u.Allergies || u.ServiceRequests || u.Medications
}

func (c ConsultationSaved) Topic() messaging.Topic {
	return ConsultationSavedTopic
}

func (c ConsultationSaved) Instance() events.Type {
	return &ConsultationSaved{}
}

func (c ConsultationSaved) CorrelationID() string {
	return c.ConsultationID
}
