package coolfhir

import (
	"context"
	"errors"
	"testing"

	"github.com/bahmni/consultation/lib/otel"
	"github.com/bahmni/consultation/lib/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
	baseotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracedFHIRClient_CreateWithContext(t *testing.T) {
	previous := baseotel.GetTextMapPropagator()
	baseotel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { baseotel.SetTextMapPropagator(previous) })
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	bundle := Transaction().Create(fhir.Encounter{}).Bundle()

	t.Run("ok", func(t *testing.T) {
		stub := &test.StubFHIRClient{}
		client := NewTracedFHIRClient(stub, tracer)

		var result fhir.Bundle
		err := client.CreateWithContext(context.Background(), bundle, &result)

		require.NoError(t, err)
		assert.NotEmpty(t, stub.RequestHeaders.Get("traceparent"))
		span := recorder.Ended()[len(recorder.Ended())-1]
		assert.Equal(t, "fhir.create", span.Name())
		assert.Equal(t, codes.Ok, span.Status().Code)
		assert.Contains(t, span.Attributes(), attribute.String(otel.FHIRResourceType, "Bundle"))
	})
	t.Run("error", func(t *testing.T) {
		client := NewTracedFHIRClient(&test.StubFHIRClient{Error: errors.New("connection refused")}, tracer)

		err := client.CreateWithContext(context.Background(), bundle, nil)

		require.EqualError(t, err, "connection refused")
		span := recorder.Ended()[len(recorder.Ended())-1]
		assert.Equal(t, codes.Error, span.Status().Code)
	})
}
