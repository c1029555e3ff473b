package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
)

// Setup registers a global TracerProvider that samples cfg.SampleRatio of
// root spans and writes every finished span to the structured log. The
// returned function flushes pending spans; it is a no-op when tracing is
// disabled.
func Setup(cfg config.TracingConfig, service string) func(context.Context) error {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }
	}
	tp := NewProvider(NewLogExporter(slog.Default().With("component", "tracing")), cfg.SampleRatio, service)
	otel.SetTracerProvider(tp)
	slog.Info("tracing enabled", "sample_ratio", cfg.SampleRatio)
	return tp.Shutdown
}

// NewProvider builds a batching TracerProvider around exporter.
func NewProvider(exporter sdktrace.SpanExporter, ratio float64, service string) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	)
}

// LogExporter is a SpanExporter that emits one log record per span.
type LogExporter struct {
	log *slog.Logger
}

// NewLogExporter returns an exporter writing through log.
func NewLogExporter(log *slog.Logger) *LogExporter {
	return &LogExporter{log: log}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		sc := s.SpanContext()
		args := []any{
			"span", s.Name(),
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
			"duration", s.EndTime().Sub(s.StartTime()),
		}
		if p := s.Parent(); p.IsValid() {
			args = append(args, "parent_span_id", p.SpanID().String())
		}
		for _, kv := range s.Attributes() {
			args = append(args, string(kv.Key), kv.Value.AsInterface())
		}
		if st := s.Status(); st.Code == codes.Error {
			e.log.WarnContext(ctx, "span failed", append(args, "error", st.Description)...)
			continue
		}
		e.log.DebugContext(ctx, "span finished", args...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}
