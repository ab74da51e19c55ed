package consultation

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/to"
	"github.com/stretchr/testify/require"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

var consultationDate = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

// sequentialIDs generates id-1, id-2, ...
func sequentialIDs() func() string {
	var i int
	return func() string {
		i++
		return fmt.Sprintf("id-%d", i)
	}
}

func validBundleContext() BundleContext {
	return BundleContext{
		EncounterSubject:   coolfhir.PatientReference("patient-uuid"),
		EncounterReference: "urn:uuid:encounter-placeholder",
		PractitionerUUID:   "practitioner-uuid",
		ConsultationDate:   consultationDate,
		NewID:              sequentialIDs(),
	}
}

// fillDrafts records a valid entry in every domain.
func fillDrafts(drafts *draft.Set, patientUUID string) {
	drafts.Encounter.SetPatient(patientUUID)
	drafts.Encounter.SetPractitioner("practitioner-uuid")
	drafts.Encounter.SetLocation(&draft.Coding{Code: "location-uuid", Display: "OPD-1"})
	drafts.Encounter.SetEncounterType(&draft.Coding{Code: "consultation-uuid", Display: "Consultation"})
	drafts.Encounter.SetActiveVisit("visit-uuid")
	drafts.Encounter.SetParticipants([]draft.Provider{{UUID: "practitioner-uuid", Display: "Dr. Smith"}})
	drafts.Encounter.SetConsultationDate(consultationDate)

	drafts.Conditions.AddDiagnosis(draft.Coding{Code: "fever-uuid", Display: "Fever"})
	drafts.Conditions.UpdateCertainty("fever-uuid", &draft.Coding{Code: draft.CertaintyConfirmed})
	drafts.Conditions.AddDiagnosis(draft.Coding{Code: "diabetes-uuid", Display: "Diabetes"})
	drafts.Conditions.MarkAsCondition("diabetes-uuid")
	drafts.Conditions.UpdateConditionDuration("diabetes-uuid", to.Ptr(2), to.Ptr(draft.DurationYears))

	drafts.Allergies.Add(draft.AllergenConcept{ID: "peanut-uuid", Display: "Peanut", Type: draft.AllergenFood})
	drafts.Allergies.UpdateSeverity("peanut-uuid", &draft.Coding{Code: "severe", Display: "Severe"})
	drafts.Allergies.UpdateReactions("peanut-uuid", []draft.Coding{{Code: "hives-uuid", Display: "Hives"}})

	drafts.ServiceRequests.Add("Lab Order", draft.Coding{Code: "cbc-uuid", Display: "Complete Blood Count"})

	drafts.Medications.Add(draft.Medication{ID: "paracetamol-uuid", Name: "Paracetamol 500mg"}, "Paracetamol 500mg")
	drafts.Medications.UpdateDosage("paracetamol-uuid", 1)
	drafts.Medications.UpdateDosageUnit("paracetamol-uuid", &draft.Coding{Code: "tablet-uuid", Display: "Tablet(s)"})
	drafts.Medications.UpdateRoute("paracetamol-uuid", &draft.Coding{Code: "oral-uuid", Display: "Oral"})
	drafts.Medications.UpdateFrequency("paracetamol-uuid", &draft.Frequency{Coding: draft.Coding{Code: "bd-uuid", Display: "Twice a day"}, TimesPerDay: 2})
	drafts.Medications.UpdateDuration("paracetamol-uuid", 5)
	drafts.Medications.UpdateDurationUnit("paracetamol-uuid", &draft.DurationUnitDays)
}

// entryResource unmarshals the resource of the bundle entry.
func entryResource(t *testing.T, entry fhir.BundleEntry) map[string]any {
	t.Helper()
	var result map[string]any
	require.NoError(t, json.Unmarshal(entry.Resource, &result))
	return result
}

// referenceOf returns the reference of the given property of the resource, e.g. "encounter".
func referenceOf(t *testing.T, resource map[string]any, property string) string {
	t.Helper()
	reference, ok := resource[property].(map[string]any)
	require.True(t, ok, "resource has no %s", property)
	return reference["reference"].(string)
}
