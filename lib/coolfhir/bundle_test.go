package coolfhir

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bahmni/consultation/lib/test"
	"github.com/bahmni/consultation/lib/to"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

func TestTransactionBuilder(t *testing.T) {
	tx := Transaction().
		Create(fhir.Condition{
			Id: to.Ptr("condition1"),
		}, WithFullUrl("urn:uuid:1")).
		Update(fhir.Encounter{
			Id: to.Ptr("enc1"),
		}, "Encounter/enc1").
		Bundle()

	require.Equal(t, fhir.BundleTypeTransaction, tx.Type)
	require.Len(t, tx.Entry, 2)

	assert.Equal(t, "urn:uuid:1", *tx.Entry[0].FullUrl)
	assert.Equal(t, fhir.HTTPVerbPOST, tx.Entry[0].Request.Method)
	assert.Equal(t, "Condition", tx.Entry[0].Request.Url)
	var condition map[string]interface{}
	require.NoError(t, json.Unmarshal(tx.Entry[0].Resource, &condition))
	assert.Equal(t, "condition1", condition["id"])

	assert.Nil(t, tx.Entry[1].FullUrl)
	assert.Equal(t, fhir.HTTPVerbPUT, tx.Entry[1].Request.Method)
	assert.Equal(t, "Encounter/enc1", tx.Entry[1].Request.Url)
}

func TestNewBundleEntry(t *testing.T) {
	t.Run("resource URL defaults to resource type", func(t *testing.T) {
		entry, err := NewBundleEntry("urn:uuid:abc", fhir.AllergyIntolerance{}, fhir.HTTPVerbPOST, "")
		require.NoError(t, err)
		assert.Equal(t, "urn:uuid:abc", *entry.FullUrl)
		assert.Equal(t, "AllergyIntolerance", entry.Request.Url)
		assert.Equal(t, fhir.HTTPVerbPOST, entry.Request.Method)
	})
	t.Run("explicit resource URL", func(t *testing.T) {
		entry, err := NewBundleEntry("Encounter/123", fhir.Encounter{Id: to.Ptr("123")}, fhir.HTTPVerbPUT, "Encounter/123")
		require.NoError(t, err)
		assert.Equal(t, "Encounter/123", entry.Request.Url)
		assert.Equal(t, fhir.HTTPVerbPUT, entry.Request.Method)
	})
}

func TestResourceType(t *testing.T) {
	assert.Equal(t, "ServiceRequest", ResourceType(fhir.ServiceRequest{}))
	assert.Equal(t, "Condition", ResourceType(&fhir.Condition{}))
	assert.Equal(t, "Encounter", ResourceType(json.RawMessage(`{"resourceType":"Encounter"}`)))
}

func TestResourcesInBundle(t *testing.T) {
	bundle := Transaction().
		Create(fhir.Condition{Id: to.Ptr("1")}).
		Create(fhir.AllergyIntolerance{Id: to.Ptr("2")}).
		Create(fhir.Condition{Id: to.Ptr("3")}).
		Bundle()
	var conditions []fhir.Condition
	require.NoError(t, ResourcesInBundle(&bundle, EntryIsOfType("Condition"), &conditions))
	require.Len(t, conditions, 2)
	assert.Equal(t, "3", *conditions[1].Id)
}

func TestExecuteTransaction(t *testing.T) {
	ctx := context.Background()
	t.Run("ok", func(t *testing.T) {
		client := &test.StubFHIRClient{}
		bundle := Transaction().Create(fhir.Condition{}).Bundle()
		result, err := ExecuteTransaction(ctx, client, "ConsultationBundle", bundle)
		require.NoError(t, err)
		require.Len(t, client.CreatedResources["Bundle"], 1)
		assert.Equal(t, []string{"ConsultationBundle"}, client.CreatedAt)
		require.Len(t, result.Entry, 1)
		assert.Equal(t, "201 Created", result.Entry[0].Response.Status)
	})
	t.Run("error", func(t *testing.T) {
		client := &test.StubFHIRClient{Error: errors.New("connection refused")}
		_, err := ExecuteTransaction(ctx, client, "ConsultationBundle", Transaction().Bundle())
		require.EqualError(t, err, "failed to execute FHIR transaction: connection refused")
	})
}
