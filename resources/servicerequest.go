package resources

import (
	"fmt"

	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// CreateServiceRequest creates an active order for the investigation, with the selected priority.
func CreateServiceRequest(serviceRequest draft.ServiceRequestEntry, subject *fhir.Reference, encounter *fhir.Reference,
	requester *fhir.Reference) (*fhir.ServiceRequest, error) {
	if err := checkSubject(subject); err != nil {
		return nil, err
	}
	priority, err := coolfhir.ParseCode[fhir.RequestPriority](string(serviceRequest.SelectedPriority))
	if err != nil {
		return nil, fmt.Errorf("service request %s: %w", serviceRequest.ID, err)
	}
	return &fhir.ServiceRequest{
		Status:    fhir.RequestStatusActive,
		Intent:    fhir.RequestIntentOrder,
		Priority:  &priority,
		Code:      coolfhir.ConceptCodeableConcept(serviceRequest.ID, serviceRequest.Display),
		Subject:   *subject,
		Encounter: encounter,
		Requester: requester,
		Note:      annotations(serviceRequest.Note),
	}, nil
}
