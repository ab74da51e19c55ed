//go:generate mockgen -destination=./transport_mock.go -package=consultation -source=transport.go
package consultation

import (
	"context"
	"errors"
	"net/http"

	fhirclient "github.com/SanteonNL/go-fhir-client"
	"github.com/bahmni/consultation/lib/breaker"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// DefaultSubmitPath is the path on the FHIR server the consultation bundle is posted to.
const DefaultSubmitPath = "ConsultationBundle"

// Transport submits an assembled consultation bundle to the EHR.
type Transport interface {
	Submit(ctx context.Context, bundle fhir.Bundle) (*fhir.Bundle, error)
}

var _ Transport = &FHIRTransport{}

// NewFHIRTransport creates a Transport that posts the bundle to submitPath on the FHIR server.
// Calls go through the circuit breaker, if given.
func NewFHIRTransport(client fhirclient.Client, submitPath string, circuitBreaker *breaker.CircuitBreaker) *FHIRTransport {
	if submitPath == "" {
		submitPath = DefaultSubmitPath
	}
	return &FHIRTransport{
		client:         client,
		submitPath:     submitPath,
		circuitBreaker: circuitBreaker,
	}
}

type FHIRTransport struct {
	client         fhirclient.Client
	submitPath     string
	circuitBreaker *breaker.CircuitBreaker
}

func (f *FHIRTransport) Submit(ctx context.Context, bundle fhir.Bundle) (*fhir.Bundle, error) {
	var result fhir.Bundle
	execute := func(ctx context.Context) error {
		var err error
		result, err = coolfhir.ExecuteTransaction(ctx, f.client, f.submitPath, bundle)
		return err
	}
	var err error
	if f.circuitBreaker != nil {
		err = f.circuitBreaker.Execute(ctx, execute)
	} else {
		err = execute(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// IsTransportFailure reports whether the error indicates the EHR is unavailable,
// as opposed to the EHR rejecting the bundle (4xx).
func IsTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	if status := upstreamStatusCode(err); status > 0 && status < http.StatusInternalServerError {
		return false
	}
	return true
}

// upstreamStatusCode returns the HTTP status of the FHIR server's error response, or 0 if the error isn't one.
func upstreamStatusCode(err error) int {
	var operationOutcomeErr fhirclient.OperationOutcomeError
	if errors.As(err, &operationOutcomeErr) {
		return operationOutcomeErr.HttpStatusCode
	}
	var operationOutcomeErrPtr *fhirclient.OperationOutcomeError
	if errors.As(err, &operationOutcomeErrPtr) {
		return operationOutcomeErrPtr.HttpStatusCode
	}
	return 0
}
