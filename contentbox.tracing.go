package contentbox

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// renderTracer wraps the tracer used for pipeline spans.
// The zero value resolves the tracer from the global provider.
type renderTracer struct {
	tracer trace.Tracer
}

func newRenderTracer(provider trace.TracerProvider) renderTracer {
	if provider == nil {
		return renderTracer{tracer: otel.Tracer(DefaultTracerName)}
	}
	return renderTracer{tracer: provider.Tracer(DefaultTracerName)}
}

func (t renderTracer) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := t.tracer
	if tracer == nil {
		tracer = otel.Tracer(DefaultTracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on the span and ends it
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// endRenderSpan adds the classification of a failed render to the span
func endRenderSpan(span trace.Span, output string, failure *RenderingError) {
	if failure != nil {
		span.SetAttributes(attribute.Int(AttrErrorCode, failure.Code))
		endSpan(span, failure)
		return
	}
	span.SetAttributes(attribute.Int(AttrOutputLength, len(output)))
	endSpan(span, nil)
}
