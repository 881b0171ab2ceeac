// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestNewProvider_Disabled(t *testing.T) {
	cfg := Config{
		Enabled:      false,
		ServiceName:  "test-service",
		ExporterType: "grpc",
	}

	provider, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if provider.Enabled() {
		t.Error("Expected noop provider")
	}

	tracer := otel.Tracer("test")
	_, span := tracer.Start(context.Background(), "noop-check")
	if span.IsRecording() {
		t.Error("Expected noop tracer span to be non-recording")
	}
	span.End()
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	cfg := Config{
		Enabled:      true,
		ServiceName:  "test-service",
		ExporterType: "invalid",
	}

	_, err := NewProvider(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for invalid exporter type")
	}

	expectedMsg := "unsupported exporter type: invalid (supported: grpc, http, console)"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestNewProvider_ConsoleExporterWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	provider, err := NewProvider(context.Background(), Config{
		Enabled:        true,
		ServiceName:    "pokemon-app",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		ExporterType:   "console",
		ConsoleWriter:  &buf,
		SamplingRate:   1.0,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, span := Tracer(TracerName).Start(context.Background(), SpanComponentMount)
	span.End()

	if !bytes.Contains(buf.Bytes(), []byte(SpanComponentMount)) {
		t.Errorf("expected console output to contain span name, got %q", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("pokemon-app")) {
		t.Errorf("expected console output to contain service name")
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{name: "always sample", rate: 1.0, want: "ParentBased{root:AlwaysOnSampler"},
		{name: "never sample", rate: 0.0, want: "ParentBased{root:AlwaysOffSampler"},
		{name: "ratio sample", rate: 0.5, want: "ParentBased{root:TraceIDRatioBased{0.5}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newSampler(tt.rate).Description()
			if len(got) < len(tt.want) || got[:len(tt.want)] != tt.want {
				t.Errorf("Description() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestNewSampler_ChildFollowsParent(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(newSampler(0.0)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), parent)
	_, span := tp.Tracer("test").Start(ctx, "child")
	defer span.End()

	if !span.SpanContext().IsSampled() {
		t.Error("expected child of a sampled remote parent to be sampled")
	}
}

func TestProvider_Shutdown(t *testing.T) {
	provider := &Provider{tp: nil}
	err := provider.Shutdown(context.Background())
	if err != nil {
		t.Errorf("Expected no error on noop shutdown, got: %v", err)
	}
}

func TestProvider_ShutdownTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &Provider{tp: sdktrace.NewTracerProvider()}
	done := make(chan struct{})
	go func() {
		_ = provider.Shutdown(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(6 * time.Second):
		t.Fatal("Shutdown did not return")
	}
}
