package tracing

import (
	"context"
	"maps"
	"slices"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
)

const (
	TraceparentHeader = "traceparent"
	EventTypeHeader   = "event_type"
)

var traceContext = propagation.TraceContext{}

// Traceparent renders the span in ctx as a W3C traceparent value. It is empty
// when ctx carries no valid span.
func Traceparent(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	traceContext.Inject(ctx, carrier)
	return carrier.Get(TraceparentHeader)
}

// ContextWithTraceparent continues the trace recorded in traceparent.
func ContextWithTraceparent(ctx context.Context, traceparent string) context.Context {
	if traceparent == "" {
		return ctx
	}
	return traceContext.Extract(ctx, propagation.MapCarrier{TraceparentHeader: traceparent})
}

// MessageHeaders builds the headers of an event message. Extra headers are
// emitted in key order; the stored traceparent of the request that wrote the
// event is carried so consumers join that trace.
func MessageHeaders(eventType, traceparent string, extra map[string]string) []kafka.Header {
	headers := make([]kafka.Header, 0, len(extra)+2)
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(extra[k])})
	}
	headers = append(headers, kafka.Header{Key: EventTypeHeader, Value: []byte(eventType)})
	if traceparent != "" {
		headers = append(headers, kafka.Header{Key: TraceparentHeader, Value: []byte(traceparent)})
	}
	return headers
}

func ExtractKafkaHeaders(ctx context.Context, headers []kafka.Header) context.Context {
	carrier := propagation.MapCarrier{}
	for _, h := range headers {
		carrier[h.Key] = string(h.Value)
	}
	return traceContext.Extract(ctx, carrier)
}
