package resources

import (
	"fmt"

	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// CreateAllergyIntolerance creates an active AllergyIntolerance with a single reaction holding all selected manifestations.
// Selected reactions without a code are left out. The note is only set when it contains non-whitespace text.
func CreateAllergyIntolerance(allergy draft.AllergyEntry, subject *fhir.Reference, encounter *fhir.Reference,
	recorder *fhir.Reference) (*fhir.AllergyIntolerance, error) {
	if err := checkSubject(subject); err != nil {
		return nil, err
	}
	category, err := coolfhir.ParseCode[fhir.AllergyIntoleranceCategory](string(allergy.Type))
	if err != nil {
		return nil, fmt.Errorf("allergy %s: %w", allergy.ID, err)
	}
	reaction := fhir.AllergyIntoleranceReaction{}
	for _, selected := range allergy.SelectedReactions {
		if selected.Code == "" {
			continue
		}
		reaction.Manifestation = append(reaction.Manifestation, *coolfhir.ConceptCodeableConcept(selected.Code, selected.Display))
	}
	if allergy.SelectedSeverity != nil && allergy.SelectedSeverity.Code != "" {
		severity, err := coolfhir.ParseCode[fhir.AllergyIntoleranceSeverity](allergy.SelectedSeverity.Code)
		if err != nil {
			return nil, fmt.Errorf("allergy %s: %w", allergy.ID, err)
		}
		reaction.Severity = &severity
	}
	return &fhir.AllergyIntolerance{
		ClinicalStatus: coolfhir.CodeableConcept("", coolfhir.Coding(coolfhir.AllergyClinicalStatusSystem, "active", "Active")),
		Category:       []fhir.AllergyIntoleranceCategory{category},
		Code:           coolfhir.ConceptCodeableConcept(allergy.ID, allergy.Display),
		Patient:        *subject,
		Encounter:      encounter,
		Recorder:       recorder,
		Reaction:       []fhir.AllergyIntoleranceReaction{reaction},
		Note:           annotations(allergy.Note),
	}, nil
}
