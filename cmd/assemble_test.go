package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bahmni/consultation/consultation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const draftsJSON = `{
  "encounter": {
    "patientUUID": "patient-uuid",
    "practitionerUUID": "practitioner-uuid",
    "consultationDate": "2025-01-15T10:30:00Z"
  },
  "diagnoses": [
    {"id": "fever-uuid", "display": "Fever", "selectedCertainty": {"code": "confirmed"}}
  ],
  "serviceRequests": [
    {"category": "Lab Order", "entries": [{"id": "cbc-uuid", "display": "CBC", "selectedPriority": "routine"}]},
    {"category": "Radiology Order", "entries": []}
  ]
}`

func writeDrafts(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "drafts.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	command := NewRootCommand()
	out := &bytes.Buffer{}
	command.SetOut(out)
	command.SetArgs(args)
	err := command.Execute()
	return out.String(), err
}

func TestAssembleCommand(t *testing.T) {
	t.Run("new encounter", func(t *testing.T) {
		out, err := runCommand(t, "assemble", writeDrafts(t, draftsJSON))

		require.NoError(t, err)
		var bundle map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &bundle))
		assert.Equal(t, "transaction", bundle["type"])
		entries := bundle["entry"].([]any)
		require.Len(t, entries, 3)
		encounterRequest := entries[0].(map[string]any)["request"].(map[string]any)
		assert.Equal(t, "POST", encounterRequest["method"])
		assert.Equal(t, "Encounter", encounterRequest["url"])
	})
	t.Run("active encounter", func(t *testing.T) {
		out, err := runCommand(t, "assemble", "--active-encounter", "encounter-1", writeDrafts(t, draftsJSON))

		require.NoError(t, err)
		var bundle map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &bundle))
		entries := bundle["entry"].([]any)
		encounterRequest := entries[0].(map[string]any)["request"].(map[string]any)
		assert.Equal(t, "PUT", encounterRequest["method"])
		assert.Equal(t, "Encounter/encounter-1", encounterRequest["url"])
		diagnosis := entries[1].(map[string]any)["resource"].(map[string]any)
		assert.Equal(t, "Encounter/encounter-1", diagnosis["encounter"].(map[string]any)["reference"])
	})
	t.Run("missing practitioner", func(t *testing.T) {
		_, err := runCommand(t, "assemble", writeDrafts(t, `{"encounter":{"patientUUID":"patient-uuid"}}`))

		require.ErrorIs(t, err, consultation.ErrInvalidPractitioner)
	})
	t.Run("invalid file", func(t *testing.T) {
		_, err := runCommand(t, "assemble", writeDrafts(t, `{`))

		require.ErrorContains(t, err, "parse drafts")
	})
	t.Run("file doesn't exist", func(t *testing.T) {
		_, err := runCommand(t, "assemble", filepath.Join(t.TempDir(), "missing.json"))

		require.ErrorContains(t, err, "read drafts")
	})
}
