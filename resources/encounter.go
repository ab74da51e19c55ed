package resources

import (
	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/to"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// CreateEncounter creates an in-progress ambulatory Encounter, as part of the patient's active visit.
func CreateEncounter(details draft.EncounterDetails, subject *fhir.Reference) (*fhir.Encounter, error) {
	if err := checkSubject(subject); err != nil {
		return nil, err
	}
	result := &fhir.Encounter{
		Meta: &fhir.Meta{
			Tag: []fhir.Coding{coolfhir.Coding(coolfhir.EncounterTagSystem, "encounter", "Encounter")},
		},
		Status:  fhir.EncounterStatusInProgress,
		Class:   coolfhir.Coding(coolfhir.ActCodeSystem, "AMB", "ambulatory"),
		Subject: subject,
	}
	if details.EncounterType != nil && details.EncounterType.Code != "" {
		result.Type = []fhir.CodeableConcept{
			*coolfhir.CodeableConcept(details.EncounterType.Display,
				coolfhir.Coding(coolfhir.EncounterTypeSystem, details.EncounterType.Code, details.EncounterType.Display)),
		}
	}
	if details.ActiveVisitID != "" {
		// OpenMRS represents the visit as the parent Encounter
		result.PartOf = coolfhir.LiteralReference("Encounter", details.ActiveVisitID)
	}
	for _, participant := range details.Participants {
		individual := coolfhir.PractitionerReference(participant.UUID)
		individual.Display = to.NilString(participant.Display)
		result.Participant = append(result.Participant, fhir.EncounterParticipant{
			Type: []fhir.CodeableConcept{
				*coolfhir.CodeableConcept("", coolfhir.Coding(coolfhir.ParticipationTypeSystem, "PPRF", "primary performer")),
			},
			Individual: individual,
		})
	}
	if details.Location != nil && details.Location.Code != "" {
		location := coolfhir.LiteralReference("Location", details.Location.Code)
		location.Display = to.NilString(details.Location.Display)
		result.Location = []fhir.EncounterLocation{{Location: *location}}
	}
	if !details.ConsultationDate.IsZero() {
		result.Period = &fhir.Period{Start: to.Ptr(coolfhir.FormatDateTime(details.ConsultationDate))}
	}
	return result, nil
}
