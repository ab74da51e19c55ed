package draft

import (
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeEncounterDetails(store *EncounterDetailsStore) {
	store.SetPatient("patient-uuid")
	store.SetPractitioner("practitioner-uuid")
	store.SetLocation(&Coding{Code: "location-uuid", Display: "OPD-1"})
	store.SetEncounterType(&Coding{Code: "consultation-uuid", Display: "Consultation"})
	store.SetVisitType(&Coding{Code: "opd-uuid", Display: "OPD"})
	store.SetActiveVisit("visit-uuid")
	store.SetParticipants([]Provider{{UUID: "provider-uuid", Display: "Dr. Smith"}})
	store.SetConsultationDate(time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC))
}

func TestEncounterDetailsStore_Setters(t *testing.T) {
	store := NewEncounterDetailsStore()
	completeEncounterDetails(store)
	before := store.Details()

	store.SetLocation(&Coding{Code: "ward-2"})

	after := store.Details()
	assert.Equal(t, "ward-2", after.Location.Code)
	after.Location = before.Location
	if diff := deep.Equal(before, after); diff != nil {
		t.Error(diff)
	}
}

func TestEncounterDetailsStore_Details(t *testing.T) {
	store := NewEncounterDetailsStore()
	participants := []Provider{{UUID: "practitioner-1"}}
	store.SetParticipants(participants)

	participants[0].UUID = "changed"
	details := store.Details()
	details.Participants[0].UUID = "changed too"

	assert.Equal(t, "practitioner-1", store.Details().Participants[0].UUID)
}

func TestEncounterDetailsStore_ValidateAll(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		store := NewEncounterDetailsStore()
		completeEncounterDetails(store)

		assert.True(t, store.ValidateAll())

		details := store.Details()
		assert.True(t, details.HasBeenValidated)
		assert.Nil(t, details.Errors)
		assert.Equal(t, "OPD-1", details.Location.Display)
		assert.Equal(t, "visit-uuid", details.ActiveVisitID)
	})
	t.Run("empty", func(t *testing.T) {
		store := NewEncounterDetailsStore()
		assert.False(t, store.Details().HasBeenValidated)

		assert.False(t, store.ValidateAll())

		details := store.Details()
		assert.True(t, details.HasBeenValidated)
		assert.Equal(t, FieldErrors{
			"patient":       ErrInputValueRequired,
			"practitioner":  ErrInputValueRequired,
			"location":      ErrDropdownValueRequired,
			"encounterType": ErrDropdownValueRequired,
			"visit":         ErrDropdownValueRequired,
			"participants":  ErrDropdownValueRequired,
		}, details.Errors)
	})
	t.Run("visit type is optional", func(t *testing.T) {
		store := NewEncounterDetailsStore()
		completeEncounterDetails(store)
		store.SetVisitType(nil)

		assert.True(t, store.ValidateAll())
	})
	t.Run("errors are cleared once fixed", func(t *testing.T) {
		store := NewEncounterDetailsStore()
		completeEncounterDetails(store)
		store.SetLocation(&Coding{})
		require.False(t, store.ValidateAll())
		require.Equal(t, FieldErrors{"location": ErrDropdownValueRequired}, store.Details().Errors)

		store.SetLocation(&Coding{Code: "location-uuid"})

		assert.True(t, store.ValidateAll())
		assert.Nil(t, store.Details().Errors)
	})
}

func TestEncounterDetailsStore_Reset(t *testing.T) {
	store := NewEncounterDetailsStore()
	completeEncounterDetails(store)
	store.ValidateAll()

	store.Reset()
	store.Reset()

	assert.Equal(t, EncounterDetails{}, store.Details())
}
