package resources

import (
	"testing"
	"time"

	"github.com/bahmni/consultation/draft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

func paracetamolPrescription() draft.MedicationEntry {
	return draft.MedicationEntry{
		ID:               "paracetamol-uuid",
		Medication:       draft.Medication{ID: "paracetamol-uuid", Name: "Paracetamol 500mg"},
		Display:          "Paracetamol 500mg Tablet",
		Dosage:           1.5,
		DosageUnit:       &draft.Coding{Code: "tablet-uuid", Display: "Tablet(s)"},
		Frequency:        &draft.Frequency{Coding: draft.Coding{Code: "bd-uuid", Display: "Twice a day"}, TimesPerDay: 2},
		Route:            &draft.Coding{Code: "oral-uuid", Display: "Oral"},
		Duration:         5,
		DurationUnit:     &draft.DurationUnitDays,
		Instruction:      &draft.Coding{Code: "after-meals-uuid", Display: "After meals"},
		DispenseQuantity: 15,
		DispenseUnit:     &draft.Coding{Code: "tablet-uuid", Display: "Tablet(s)"},
		StartDate:        time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		Note:             "with water",
	}
}

func TestCreateMedicationRequest(t *testing.T) {
	t.Run("scheduled prescription", func(t *testing.T) {
		request, err := CreateMedicationRequest(paracetamolPrescription(), patientRef, encounterRef, practitionerRef)

		require.NoError(t, err)
		assert.Equal(t, "active", request.Status)
		assert.Equal(t, "order", request.Intent)
		assert.Equal(t, fhir.RequestPriorityRoutine, *request.Priority)
		assert.Equal(t, "Medication/paracetamol-uuid", *request.MedicationReference.Reference)
		assert.Equal(t, "Paracetamol 500mg Tablet", *request.MedicationReference.Display)
		assert.Equal(t, "Patient/patient-uuid", *request.Subject.Reference)
		assert.Equal(t, encounterRef, request.Encounter)
		assert.Equal(t, "Practitioner/practitioner-uuid", *request.Requester.Reference)
		assert.Equal(t, "with water", request.Note[0].Text)

		require.Len(t, request.DosageInstruction, 1)
		dosage := request.DosageInstruction[0]
		assert.False(t, *dosage.AsNeededBoolean)
		assert.Equal(t, "oral-uuid", *dosage.Route.Coding[0].Code)
		assert.Equal(t, "after-meals-uuid", *dosage.AdditionalInstruction[0].Coding[0].Code)
		assert.Equal(t, 1.5, *dosage.DoseAndRate[0].DoseQuantity.Value)
		assert.Equal(t, "tablet-uuid", *dosage.DoseAndRate[0].DoseQuantity.Code)
		assert.Equal(t, []string{"2025-01-15T10:30:00.000Z"}, dosage.Timing.Event)
		assert.Equal(t, "bd-uuid", *dosage.Timing.Code.Coding[0].Code)
		assert.Equal(t, 2, *dosage.Timing.Repeat.Frequency)
		assert.Equal(t, 1.0, *dosage.Timing.Repeat.Period)
		assert.Equal(t, "d", *dosage.Timing.Repeat.PeriodUnit)
		assert.Equal(t, 5.0, *dosage.Timing.Repeat.BoundsDuration.Value)
		assert.Equal(t, "d", *dosage.Timing.Repeat.BoundsDuration.Code)

		assert.Equal(t, 15.0, *request.DispenseRequest.Quantity.Value)
		assert.Equal(t, "Tablet(s)", *request.DispenseRequest.Quantity.Unit)
	})
	t.Run("STAT and PRN", func(t *testing.T) {
		entry := paracetamolPrescription()
		entry.IsSTAT = true
		entry.IsPRN = true
		entry.Frequency = nil
		entry.Duration = 0
		entry.DurationUnit = nil

		request, err := CreateMedicationRequest(entry, patientRef, encounterRef, practitionerRef)

		require.NoError(t, err)
		assert.Equal(t, fhir.RequestPriorityStat, *request.Priority)
		dosage := request.DosageInstruction[0]
		assert.True(t, *dosage.AsNeededBoolean)
		assert.Nil(t, dosage.Timing.Repeat)
		assert.Nil(t, dosage.Timing.Code)
	})
	t.Run("frequency less than once a day", func(t *testing.T) {
		entry := paracetamolPrescription()
		entry.Frequency = &draft.Frequency{Coding: draft.Coding{Code: "alternate-days"}, TimesPerDay: 0.5}

		request, err := CreateMedicationRequest(entry, patientRef, encounterRef, practitionerRef)

		require.NoError(t, err)
		repeat := request.DosageInstruction[0].Timing.Repeat
		assert.Equal(t, 1, *repeat.Frequency)
		assert.Equal(t, 2.0, *repeat.Period)
	})
	t.Run("no dispense quantity", func(t *testing.T) {
		entry := paracetamolPrescription()
		entry.DispenseQuantity = 0
		entry.Note = ""

		request, err := CreateMedicationRequest(entry, patientRef, encounterRef, practitionerRef)

		require.NoError(t, err)
		asJSON := toJSONMap(t, request)
		assert.NotContains(t, asJSON, "dispenseRequest")
		assert.NotContains(t, asJSON, "note")
	})
	t.Run("subject without reference", func(t *testing.T) {
		_, err := CreateMedicationRequest(paracetamolPrescription(), nil, encounterRef, practitionerRef)
		assert.ErrorIs(t, err, ErrInvalidSubject)
	})
}
