package draft

import (
	"testing"

	"github.com/bahmni/consultation/lib/to"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	set := NewSet()
	completeEncounterDetails(set.Encounter)
	set.Allergies.Add(peanut)
	set.Conditions.AddDiagnosis(fever)
	set.Conditions.AddDiagnosis(diabetes)
	set.Conditions.UpdateCertainty(fever.Code, &Coding{Code: CertaintyConfirmed})
	set.Conditions.MarkAsCondition(diabetes.Code)
	set.Conditions.UpdateConditionDuration(diabetes.Code, to.Ptr(2), to.Ptr(DurationYears))
	set.ServiceRequests.Add(labOrder, cbc)
	set.Medications.Add(paracetamol, "Paracetamol")

	t.Run("validate all", func(t *testing.T) {
		results := set.ValidateAll()
		assert.Equal(t, map[Domain]bool{
			DomainEncounter:       true,
			DomainDiagnoses:       true,
			DomainAllergies:       false,
			DomainConditions:      true,
			DomainServiceRequests: true,
			DomainMedications:     false,
		}, results)
		assert.Equal(t, []Domain{DomainAllergies, DomainMedications}, Invalid(results))
		// every store has been validated, not just the first invalid one
		assert.True(t, set.Medications.Entries()[0].HasBeenValidated)
	})
	t.Run("snapshot", func(t *testing.T) {
		snapshot := set.Snapshot()
		assert.Equal(t, "patient-uuid", snapshot.Encounter.PatientUUID)
		require.Len(t, snapshot.Diagnoses, 1)
		require.Len(t, snapshot.Conditions, 1)
		require.Len(t, snapshot.Allergies, 1)
		require.Len(t, snapshot.ServiceRequests, 1)
		require.Len(t, snapshot.Medications, 1)
	})
	t.Run("reset", func(t *testing.T) {
		set.Reset()
		snapshot := set.Snapshot()
		assert.Empty(t, snapshot.Diagnoses)
		assert.Empty(t, snapshot.Conditions)
		assert.Empty(t, snapshot.Allergies)
		assert.Empty(t, snapshot.ServiceRequests)
		assert.Empty(t, snapshot.Medications)
		assert.Equal(t, EncounterDetails{}, snapshot.Encounter)
	})
	t.Run("sets are isolated", func(t *testing.T) {
		one, other := NewSet(), NewSet()
		one.Allergies.Add(peanut)
		assert.Empty(t, other.Allergies.Entries())
	})
}
