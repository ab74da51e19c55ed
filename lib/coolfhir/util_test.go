package coolfhir

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bahmni/consultation/lib/to"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

func TestFormatDateTime(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{"UTC", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), "2025-01-15T10:30:00.000Z"},
		{"milliseconds are kept", time.Date(2025, 1, 15, 10, 30, 0, 123456789, time.UTC), "2025-01-15T10:30:00.123Z"},
		{"converted to UTC", time.Date(2025, 1, 15, 11, 30, 0, 0, amsterdam), "2025-01-15T10:30:00.000Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDateTime(tt.input))
		})
	}
}

func TestReferences(t *testing.T) {
	assert.Equal(t, "Patient/p1", *PatientReference("p1").Reference)
	assert.Equal(t, "Practitioner/u1", *PractitionerReference("u1").Reference)
	assert.Equal(t, "urn:uuid:123", *EncounterReference("urn:uuid:123").Reference)
}

func TestHasReference(t *testing.T) {
	assert.True(t, HasReference(PatientReference("p1")))
	assert.False(t, HasReference(nil))
	assert.False(t, HasReference(&fhir.Reference{}))
	assert.False(t, HasReference(&fhir.Reference{Reference: to.Ptr("  ")}))
}

func TestConceptCodeableConcept(t *testing.T) {
	t.Run("with display", func(t *testing.T) {
		data, err := json.Marshal(ConceptCodeableConcept("c-1", "Fever"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"coding":[{"code":"c-1","display":"Fever"}],"text":"Fever"}`, string(data))
	})
	t.Run("without display", func(t *testing.T) {
		data, err := json.Marshal(ConceptCodeableConcept("c-1", ""))
		require.NoError(t, err)
		assert.JSONEq(t, `{"coding":[{"code":"c-1"}]}`, string(data))
	})
}

func TestParseCode(t *testing.T) {
	t.Run("known code", func(t *testing.T) {
		severity, err := ParseCode[fhir.AllergyIntoleranceSeverity]("severe")
		require.NoError(t, err)
		assert.Equal(t, "severe", severity.Code())
	})
	t.Run("unknown code", func(t *testing.T) {
		_, err := ParseCode[fhir.AllergyIntoleranceSeverity]("deadly")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid code "deadly"`)
	})
}
