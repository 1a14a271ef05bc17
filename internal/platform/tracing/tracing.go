package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "supply-chain-registry"

// Provider owns the global tracer provider, if one was installed.
type Provider struct {
	provider *sdktrace.TracerProvider
}

// Setup installs a global tracer provider for the named exporter.
// "none" or "" leaves the default no-op provider in place.
func Setup(exporter string) (*Provider, error) {
	var spanExporter sdktrace.SpanExporter
	switch exporter {
	case "none", "":
		return &Provider{}, nil
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		spanExporter = exp
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", exporter)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithBatcher(spanExporter),
	)
	otel.SetTracerProvider(provider)

	return &Provider{provider: provider}, nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}
