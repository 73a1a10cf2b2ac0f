package gateway

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedModel wraps each oracle call in an OpenTelemetry span.
type tracedModel struct {
	next   CoreModel
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that records a span per request
// with the model name, prompt size and outcome.
func TracingMiddleware(serviceName string) Middleware {
	tracer := otel.Tracer(serviceName)

	return func(next CoreModel) CoreModel {
		return &tracedModel{next: next, tracer: tracer}
	}
}

func (t *tracedModel) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := t.tracer.Start(ctx, "oracle.complete",
		trace.WithAttributes(
			attribute.String("oracle.model", t.next.Model()),
			attribute.Int("oracle.prompt_chars", len(prompt)),
		))
	defer span.End()

	response, err := t.next.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("oracle.response_chars", len(response)))
	span.SetStatus(codes.Ok, "")
	return response, nil
}

func (t *tracedModel) Model() string { return t.next.Model() }
