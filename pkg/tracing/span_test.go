package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
)

// useRecorder installs a provider that keeps ended spans in memory.
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartRecordsWithProvider(t *testing.T) {
	rec := useRecorder(t)

	ctx, span := Start(context.Background(), "search.find_top_documents", attribute.String("search.query", "кот"))
	if !span.IsRecording() {
		t.Fatal("span must record once a provider is registered")
	}
	if TraceID(ctx) == "" {
		t.Error("recorded span must expose its trace id")
	}
	Fail(span, errors.New("boom"))
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(ended))
	}
	got := ended[0]
	if got.Name() != "search.find_top_documents" {
		t.Errorf("name = %q", got.Name())
	}
	if got.Status().Code != codes.Error || got.Status().Description != "boom" {
		t.Errorf("status = %+v, want error boom", got.Status())
	}
	if len(got.Events()) != 1 {
		t.Errorf("RecordError must add one exception event, got %d", len(got.Events()))
	}
	if got.SpanContext().TraceID().String() != TraceID(ctx) {
		t.Error("TraceID must match the recorded span")
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	prev := otel.GetTracerProvider()
	shutdown := Setup(config.TracingConfig{Enabled: false}, "searchserver")
	if otel.GetTracerProvider() != prev {
		t.Error("disabled tracing must not replace the global provider")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestLogExporterWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewLogExporter(log)))
	defer tp.Shutdown(context.Background())

	ctx, parent := tp.Tracer("test").Start(context.Background(), "search.match_document")
	_, child := tp.Tracer("test").Start(ctx, "engine.match", trace.WithAttributes(attribute.Int("search.document_id", 2)))
	child.SetStatus(codes.Error, "document not found")
	child.End()
	parent.End()

	out := buf.String()
	for _, want := range []string{
		`"span":"engine.match"`,
		`"search.document_id":2`,
		`"msg":"span failed"`,
		`"error":"document not found"`,
		`"parent_span_id":"` + parent.SpanContext().SpanID().String() + `"`,
		`"span":"search.match_document"`,
		`"trace_id":"` + parent.SpanContext().TraceID().String() + `"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exporter output missing %s\n%s", want, out)
		}
	}
}

func TestNewProviderRespectsSampleRatio(t *testing.T) {
	tp := NewProvider(NewLogExporter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))), 0, "searchserver")
	defer tp.Shutdown(context.Background())
	_, span := tp.Tracer("test").Start(context.Background(), "search.find_top_documents")
	defer span.End()
	if span.IsRecording() {
		t.Error("ratio 0 must drop root spans")
	}
}

func TestTraceIDFromSpanContext(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	if got := TraceID(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("TraceID = %q", got)
	}
	if TraceID(context.Background()) != "" {
		t.Error("bare context has no trace id")
	}
}
