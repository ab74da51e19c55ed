package coolfhir

import (
	"context"
	"net/http"
	"net/url"

	fhirclient "github.com/SanteonNL/go-fhir-client"
	"github.com/bahmni/consultation/lib/otel"
	baseotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var _ fhirclient.Client = &TracedFHIRClient{}

// TracedFHIRClient wraps a fhirclient.Client, recording a client span per FHIR interaction
// and propagating the trace context to the FHIR server.
type TracedFHIRClient struct {
	client fhirclient.Client
	tracer trace.Tracer
}

func NewTracedFHIRClient(client fhirclient.Client, tracer trace.Tracer) *TracedFHIRClient {
	return &TracedFHIRClient{
		client: client,
		tracer: tracer,
	}
}

func (t *TracedFHIRClient) trace(ctx context.Context, operation string, options []fhirclient.Option, fn func(ctx context.Context, options []fhirclient.Option) error, attrs ...attribute.KeyValue) error {
	ctx, span := t.tracer.Start(ctx, "fhir."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String(otel.FHIROperation, operation))...),
	)
	defer span.End()

	headers := make(http.Header)
	baseotel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
	if len(headers) > 0 {
		options = append(options, fhirclient.RequestHeaders(headers))
	}
	if err := fn(ctx, options); err != nil {
		return otel.Error(span, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (t *TracedFHIRClient) CreateWithContext(ctx context.Context, resource any, result any, options ...fhirclient.Option) error {
	return t.trace(ctx, "create", options, func(ctx context.Context, options []fhirclient.Option) error {
		return t.client.CreateWithContext(ctx, resource, result, options...)
	}, attribute.String(otel.FHIRResourceType, ResourceType(resource)))
}

func (t *TracedFHIRClient) Create(resource any, result any, options ...fhirclient.Option) error {
	return t.CreateWithContext(context.Background(), resource, result, options...)
}

func (t *TracedFHIRClient) ReadWithContext(ctx context.Context, path string, result any, options ...fhirclient.Option) error {
	return t.trace(ctx, "read", options, func(ctx context.Context, options []fhirclient.Option) error {
		return t.client.ReadWithContext(ctx, path, result, options...)
	}, attribute.String(otel.FHIRPath, path))
}

func (t *TracedFHIRClient) Read(path string, result any, options ...fhirclient.Option) error {
	return t.ReadWithContext(context.Background(), path, result, options...)
}

func (t *TracedFHIRClient) UpdateWithContext(ctx context.Context, path string, resource any, result any, options ...fhirclient.Option) error {
	return t.trace(ctx, "update", options, func(ctx context.Context, options []fhirclient.Option) error {
		return t.client.UpdateWithContext(ctx, path, resource, result, options...)
	}, attribute.String(otel.FHIRResourceType, ResourceType(resource)))
}

func (t *TracedFHIRClient) Update(path string, resource any, result any, options ...fhirclient.Option) error {
	return t.UpdateWithContext(context.Background(), path, resource, result, options...)
}

func (t *TracedFHIRClient) DeleteWithContext(ctx context.Context, path string, options ...fhirclient.Option) error {
	return t.trace(ctx, "delete", options, func(ctx context.Context, options []fhirclient.Option) error {
		return t.client.DeleteWithContext(ctx, path, options...)
	}, attribute.String(otel.FHIRPath, path))
}

func (t *TracedFHIRClient) Delete(path string, options ...fhirclient.Option) error {
	return t.DeleteWithContext(context.Background(), path, options...)
}

func (t *TracedFHIRClient) SearchWithContext(ctx context.Context, resourceType string, params url.Values, result any, options ...fhirclient.Option) error {
	return t.trace(ctx, "search", options, func(ctx context.Context, options []fhirclient.Option) error {
		return t.client.SearchWithContext(ctx, resourceType, params, result, options...)
	}, attribute.String(otel.FHIRResourceType, resourceType), attribute.Int(otel.FHIRSearchParamCount, len(params)))
}

func (t *TracedFHIRClient) Search(resourceType string, params url.Values, result any, options ...fhirclient.Option) error {
	return t.SearchWithContext(context.Background(), resourceType, params, result, options...)
}

func (t *TracedFHIRClient) Path(path ...string) *url.URL {
	return t.client.Path(path...)
}
