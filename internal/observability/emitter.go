package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kitaplan/kitaplan-backend/internal/metagen"
)

// traceEmitter records each pipeline stage event as a span on the global
// tracer provider, with the event's fields as attributes. Spans share the
// request ID attribute so one generation run can be grouped in a trace
// backend even though events arrive individually.
type traceEmitter struct {
	tracer trace.Tracer
}

func NewTraceEmitter() metagen.Emitter {
	return newTraceEmitterWith(otel.GetTracerProvider())
}

func newTraceEmitterWith(tp trace.TracerProvider) metagen.Emitter {
	return &traceEmitter{tracer: tp.Tracer("metagen")}
}

func (e *traceEmitter) Emit(ev metagen.Event) {
	attrs := make([]attribute.KeyValue, 0, len(ev.Fields)+2)
	attrs = append(attrs,
		attribute.String("request_id", ev.RequestID.String()),
		attribute.String("stage", string(ev.Stage)),
	)
	for k, v := range ev.Fields {
		attrs = append(attrs, attr(k, v))
	}

	_, span := e.tracer.Start(context.Background(), string(ev.Name),
		trace.WithTimestamp(ev.At),
		trace.WithAttributes(attrs...),
	)
	span.End()
}

func attr(key string, v any) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(key, val)
	case bool:
		return attribute.Bool(key, val)
	case int:
		return attribute.Int(key, val)
	case int64:
		return attribute.Int64(key, val)
	case float64:
		return attribute.Float64(key, val)
	default:
		return attribute.String(key, fmt.Sprintf("%v", val))
	}
}
