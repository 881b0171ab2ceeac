// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type statusErr struct{ code int }

func (e statusErr) Error() string   { return "upstream said no" }
func (e statusErr) StatusCode() int { return e.code }

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestServiceAttributes(t *testing.T) {
	m := attrMap(ServiceAttributes("pokemon-app", "1.2.3"))
	assert.Equal(t, "pokemon-app", m[ServiceNameKey].AsString())
	assert.Equal(t, "1.2.3", m[ServiceVersionKey].AsString())
}

func TestRecordError_Wrapped(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), SpanFetchEvolutionChain)
	RecordError(span, fmt.Errorf("species: %w", statusErr{code: 503}))
	span.End()

	require.Len(t, sr.Ended(), 1)
	m := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, "503", m[ErrorCodeKey].AsString())
	assert.Equal(t, "species: upstream said no", m[ErrorMessageKey].AsString())

	_, plain := tp.Tracer("test").Start(context.Background(), SpanFetchPokemon)
	RecordError(plain, errors.New("boom"))
	plain.End()
	require.Len(t, sr.Ended(), 2)
	_, hasCode := attrMap(sr.Ended()[1].Attributes())[ErrorCodeKey]
	assert.False(t, hasCode, "plain errors carry no status code")
}

func TestRecordError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), SpanFetchPokemon)
	RecordError(span, statusErr{code: 404})
	RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	got := spans[0]

	m := attrMap(got.Attributes())
	assert.True(t, m[ErrorKey].AsBool())
	assert.Equal(t, "404", m[ErrorCodeKey].AsString())
	assert.Equal(t, "upstream said no", m[ErrorMessageKey].AsString())
	assert.Equal(t, codes.Error, got.Status().Code)

	require.Len(t, got.Events(), 1)
	ev := got.Events()[0]
	assert.Equal(t, EventException, ev.Name)
	em := attrMap(ev.Attributes)
	assert.Equal(t, "upstream said no", em["exception.message"].AsString())
	assert.NotEmpty(t, em["exception.stacktrace"].AsString())
}
