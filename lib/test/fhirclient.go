package test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	fhirclient "github.com/SanteonNL/go-fhir-client"
	"github.com/bahmni/consultation/lib/to"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

var _ fhirclient.Client = &StubFHIRClient{}

// StubFHIRClient is an in-memory fhirclient.Client for tests.
// Searches match on the parameters used for encounter lookups. Created transaction bundles are answered with a transaction-response.
type StubFHIRClient struct {
	Resources []any
	// CreatedResources holds the resources passed to Create, per resource type.
	CreatedResources map[string][]any
	// CreatedAt holds the path of every Create call, in order.
	CreatedAt []string
	// RequestHeaders holds the headers set through request options by the last Create call.
	RequestHeaders http.Header
	// Searches counts the searches performed per resource type.
	Searches map[string]int
	// Error is returned by every operation when set.
	Error error
}

type stubResource struct {
	ID      string `json:"id"`
	Type    string `json:"resourceType"`
	Status  string `json:"status"`
	Subject struct {
		Reference string `json:"reference"`
	} `json:"subject"`
	Meta struct {
		Tag []fhir.Coding `json:"tag"`
	} `json:"meta"`
	raw json.RawMessage
}

func parseStubResource(resource any) stubResource {
	data, err := json.Marshal(resource)
	if err != nil {
		panic(err)
	}
	var result stubResource
	if err := json.Unmarshal(data, &result); err != nil {
		panic(err)
	}
	result.raw = data
	return result
}

func (r stubResource) hasTag(token string) bool {
	system, code, hasSystem := strings.Cut(token, "|")
	if !hasSystem {
		code, system = system, ""
	}
	for _, tag := range r.Meta.Tag {
		if to.EmptyString(tag.Code) == code && (!hasSystem || to.EmptyString(tag.System) == system) {
			return true
		}
	}
	return false
}

func (s *StubFHIRClient) Read(path string, target any, opts ...fhirclient.Option) error {
	return s.ReadWithContext(context.Background(), path, target, opts...)
}

func (s *StubFHIRClient) ReadWithContext(_ context.Context, path string, target any, _ ...fhirclient.Option) error {
	if s.Error != nil {
		return s.Error
	}
	for _, resource := range s.Resources {
		candidate := parseStubResource(resource)
		if path == candidate.Type+"/"+candidate.ID {
			return json.Unmarshal(candidate.raw, target)
		}
	}
	return fhirclient.OperationOutcomeError{HttpStatusCode: http.StatusNotFound}
}

func (s *StubFHIRClient) Search(resourceType string, query url.Values, target any, opts ...fhirclient.Option) error {
	return s.SearchWithContext(context.Background(), resourceType, query, target, opts...)
}

func (s *StubFHIRClient) SearchWithContext(_ context.Context, resourceType string, query url.Values, target any, _ ...fhirclient.Option) error {
	if s.Error != nil {
		return s.Error
	}
	if s.Searches == nil {
		s.Searches = make(map[string]int)
	}
	s.Searches[resourceType]++

	var predicates []func(stubResource) bool
	count := len(s.Resources)
	for name, values := range query {
		if len(values) != 1 {
			return fmt.Errorf("multiple values for query parameter: %s", name)
		}
		value := values[0]
		switch name {
		case "_id":
			predicates = append(predicates, func(r stubResource) bool { return r.ID == value })
		case "subject", "patient":
			predicates = append(predicates, func(r stubResource) bool { return r.Subject.Reference == value })
		case "status":
			predicates = append(predicates, func(r stubResource) bool { return r.Status == value })
		case "_tag":
			predicates = append(predicates, func(r stubResource) bool { return r.hasTag(value) })
		case "_sort":
			// Resources are returned in the order they were added
		case "_count":
			var err error
			if count, err = strconv.Atoi(value); err != nil {
				return fmt.Errorf("invalid _count parameter value: %s", value)
			}
		default:
			return fmt.Errorf("unsupported query parameter: %s", name)
		}
	}

	result := fhir.Bundle{Type: fhir.BundleTypeSearchset}
nextResource:
	for _, resource := range s.Resources {
		if len(result.Entry) == count {
			break
		}
		candidate := parseStubResource(resource)
		if candidate.Type != resourceType {
			continue
		}
		for _, predicate := range predicates {
			if !predicate(candidate) {
				continue nextResource
			}
		}
		result.Entry = append(result.Entry, fhir.BundleEntry{Resource: candidate.raw})
	}
	result.Total = to.Ptr(len(result.Entry))
	return convert(result, target)
}

func (s *StubFHIRClient) Create(resource any, result any, opts ...fhirclient.Option) error {
	return s.CreateWithContext(context.Background(), resource, result, opts...)
}

// CreateWithContext records the resource. A transaction bundle is answered with a transaction-response containing a 201 for every entry.
func (s *StubFHIRClient) CreateWithContext(_ context.Context, resource any, result any, opts ...fhirclient.Option) error {
	if s.Error != nil {
		return s.Error
	}
	created := parseStubResource(resource)
	if created.Type == "" {
		return fmt.Errorf("can't determine resource type of %T", resource)
	}
	request := &http.Request{URL: s.Path(created.Type), Header: http.Header{}}
	for _, opt := range opts {
		if pre, ok := opt.(fhirclient.PreRequestOption); ok {
			pre(s, request)
		}
	}
	path := request.URL.Opaque
	s.RequestHeaders = request.Header
	if s.CreatedResources == nil {
		s.CreatedResources = make(map[string][]any)
	}
	s.CreatedResources[created.Type] = append(s.CreatedResources[created.Type], resource)
	s.CreatedAt = append(s.CreatedAt, path)
	if result == nil {
		return nil
	}
	if created.Type != "Bundle" {
		s.Resources = append(s.Resources, resource)
		return json.Unmarshal(created.raw, result)
	}
	var bundle fhir.Bundle
	if err := json.Unmarshal(created.raw, &bundle); err != nil {
		return err
	}
	response := fhir.Bundle{Type: fhir.BundleTypeTransactionResponse}
	for range bundle.Entry {
		response.Entry = append(response.Entry, fhir.BundleEntry{
			Response: &fhir.BundleEntryResponse{Status: "201 Created"},
		})
	}
	return convert(response, result)
}

func (s *StubFHIRClient) Update(path string, resource any, result any, opts ...fhirclient.Option) error {
	return s.UpdateWithContext(context.Background(), path, resource, result, opts...)
}

func (s *StubFHIRClient) UpdateWithContext(_ context.Context, _ string, _ any, _ any, _ ...fhirclient.Option) error {
	if s.Error != nil {
		return s.Error
	}
	return errors.New("update not supported by stub")
}

func (s *StubFHIRClient) Delete(path string, opts ...fhirclient.Option) error {
	return s.DeleteWithContext(context.Background(), path, opts...)
}

func (s *StubFHIRClient) DeleteWithContext(_ context.Context, _ string, _ ...fhirclient.Option) error {
	if s.Error != nil {
		return s.Error
	}
	return errors.New("delete not supported by stub")
}

func (s *StubFHIRClient) Path(path ...string) *url.URL {
	return &url.URL{Scheme: "stub", Opaque: strings.Join(path, "/")}
}

func convert(source any, target any) error {
	data, err := json.Marshal(source)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
