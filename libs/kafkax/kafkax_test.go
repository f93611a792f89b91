package kafkax

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestEventMetaRoundTripsThroughHeaders(t *testing.T) {
	at := time.Date(2026, 1, 28, 14, 0, 0, 0, time.UTC)
	meta := EventMeta{EventID: "evt-1", EventType: "booking.created", AggregateID: "b-1", OccurredAt: at}
	msg := kafka.Message{Topic: "salon.booking.events", Key: []byte("b-1"), Headers: meta.Headers()}
	assert.Equal(t, meta, ExtractEventMeta(msg))
	assert.Equal(t, ContentTypeJSON, HeaderValue(msg.Headers, "Content-Type"))

	bare := kafka.Message{Topic: "salon.booking.events", Key: []byte("b-1")}
	assert.Equal(t, EventMeta{EventType: "salon.booking.events", AggregateID: "b-1"}, ExtractEventMeta(bare))
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, SplitBrokers(" kafka-1:9092, ,kafka-2:9092 "))
	assert.Nil(t, SplitBrokers(""))
}

func TestTraceHeadersPropagate(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := InjectTraceHeaders(ctx, EventMeta{EventID: "e", EventType: "t"}.Headers())
	assert.NotEmpty(t, HeaderValue(headers, "traceparent"))

	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), kafka.Message{Headers: headers}))
	assert.Equal(t, traceID, got.TraceID())
}
