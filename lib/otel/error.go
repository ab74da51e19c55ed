package otel

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Error marks the span as failed and returns err unchanged.
// The attributes are added to the recorded exception event.
func Error(span trace.Span, err error, attrs ...attribute.KeyValue) error {
	if err == nil {
		return nil
	}
	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
	return err
}
