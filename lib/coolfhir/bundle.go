package coolfhir

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	fhirclient "github.com/SanteonNL/go-fhir-client"
	"github.com/bahmni/consultation/lib/to"
	"github.com/rs/zerolog/log"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// URNUUIDPrefix is the prefix of placeholder fullUrls, which the FHIR server resolves within a single transaction.
const URNUUIDPrefix = "urn:uuid:"

type BundleBuilder fhir.Bundle

func Transaction() *BundleBuilder {
	return &BundleBuilder{
		Type: fhir.BundleTypeTransaction,
	}
}

// Create appends a POST entry for the resource. The request URL is the resource type.
func (t *BundleBuilder) Create(resource interface{}, opts ...BundleEntryOption) *BundleBuilder {
	return t.Append(resource, &fhir.BundleEntryRequest{
		Method: fhir.HTTPVerbPOST,
		Url:    ResourceType(resource),
	}, opts...)
}

// Update appends a PUT entry for the resource at the given path (e.g. Encounter/123).
func (t *BundleBuilder) Update(resource interface{}, path string, opts ...BundleEntryOption) *BundleBuilder {
	return t.Append(resource, &fhir.BundleEntryRequest{
		Method: fhir.HTTPVerbPUT,
		Url:    path,
	}, opts...)
}

func (t *BundleBuilder) Append(resource interface{}, request *fhir.BundleEntryRequest, opts ...BundleEntryOption) *BundleBuilder {
	data, err := json.Marshal(resource)
	if err != nil {
		log.Error().Err(err).Msgf("Unable to marshal %T for Bundle entry, skipping", resource)
		return t
	}
	return t.AppendEntry(fhir.BundleEntry{
		Resource: data,
		Request:  request,
	}, opts...)
}

func (t *BundleBuilder) AppendEntry(entry fhir.BundleEntry, opts ...BundleEntryOption) *BundleBuilder {
	for _, opt := range opts {
		opt(&entry)
	}
	t.Entry = append(t.Entry, entry)
	return t
}

func (t *BundleBuilder) Bundle() fhir.Bundle {
	return fhir.Bundle(*t)
}

type BundleEntryOption func(entry *fhir.BundleEntry)

func WithFullUrl(fullUrl string) BundleEntryOption {
	return func(entry *fhir.BundleEntry) {
		entry.FullUrl = to.NilString(fullUrl)
	}
}

// NewBundleEntry wraps a resource in a transaction Bundle entry.
// If resourceURL is empty, the request URL defaults to the resource type.
func NewBundleEntry(fullUrl string, resource interface{}, method fhir.HTTPVerb, resourceURL string) (fhir.BundleEntry, error) {
	data, err := json.Marshal(resource)
	if err != nil {
		return fhir.BundleEntry{}, fmt.Errorf("marshal %T: %w", resource, err)
	}
	if resourceURL == "" {
		resourceURL = ResourceType(resource)
	}
	return fhir.BundleEntry{
		FullUrl:  to.NilString(fullUrl),
		Resource: data,
		Request: &fhir.BundleEntryRequest{
			Method: method,
			Url:    resourceURL,
		},
	}, nil
}

type Resource struct {
	Type string `json:"resourceType"`
	ID   string `json:"id"`
}

// ResourceType returns the FHIR resource type of the given resource.
// It prefers the resourceType property of the JSON representation and falls back to the Go type name.
func ResourceType(resource interface{}) string {
	if raw, ok := resource.(json.RawMessage); ok {
		var res Resource
		_ = json.Unmarshal(raw, &res)
		return res.Type
	}
	if data, err := json.Marshal(resource); err == nil {
		var res Resource
		if json.Unmarshal(data, &res) == nil && res.Type != "" {
			return res.Type
		}
	}
	t := reflect.TypeOf(resource)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func EntryIsOfType(resourceType string) func(entry fhir.BundleEntry) bool {
	return FilterResource(func(res Resource) bool {
		return res.Type == resourceType
	})
}

// FilterResource returns a filter function that filters resources in a bundle.
func FilterResource(fn func(resource Resource) bool) func(entry fhir.BundleEntry) bool {
	return func(entry fhir.BundleEntry) bool {
		var res Resource
		if err := json.Unmarshal(entry.Resource, &res); err != nil {
			return false
		}
		return fn(res)
	}
}

// ResourcesInBundle unmarshals all entries in the bundle that match the given filter into the result.
func ResourcesInBundle(bundle *fhir.Bundle, filter func(entry fhir.BundleEntry) bool, result interface{}) error {
	var resources []json.RawMessage
	for _, entry := range bundle.Entry {
		if filter(entry) {
			resources = append(resources, entry.Resource)
		}
	}
	data, _ := json.Marshal(resources)
	return json.Unmarshal(data, result)
}

// ExecuteTransaction posts the transaction bundle to the given path on the FHIR server and returns the response bundle.
func ExecuteTransaction(ctx context.Context, fhirClient fhirclient.Client, path string, bundle fhir.Bundle) (fhir.Bundle, error) {
	var resultBundle fhir.Bundle
	if err := fhirClient.CreateWithContext(ctx, bundle, &resultBundle, fhirclient.AtPath(path)); err != nil {
		return fhir.Bundle{}, fmt.Errorf("failed to execute FHIR transaction: %w", err)
	}
	log.Ctx(ctx).Debug().Msgf("Executed Bundle successfully, got %d entries", len(resultBundle.Entry))
	return resultBundle, nil
}
