package engine

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/leengari/mini-optimizer/internal/planner"
)

const tracerName = "github.com/leengari/mini-optimizer/internal/engine"

// TracingObserver records one span per explain run with a child span for
// every optimizer stage.
type TracingObserver struct {
	tracer trace.Tracer

	mu   sync.Mutex
	runs map[string]runSpan
}

type runSpan struct {
	ctx  context.Context
	span trace.Span
}

func NewTracingObserver(tp trace.TracerProvider) *TracingObserver {
	return &TracingObserver{
		tracer: tp.Tracer(tracerName),
		runs:   make(map[string]runSpan),
	}
}

func (o *TracingObserver) OnEvent(event Event) {
	switch event.Type {
	case EventExplainStart:
		sql, _ := event.Data.(string)
		ctx, span := o.tracer.Start(context.Background(), "explain",
			trace.WithTimestamp(event.Timestamp),
			trace.WithAttributes(
				attribute.String("run_id", event.RunID),
				attribute.String("sql", sql),
			))
		o.mu.Lock()
		o.runs[event.RunID] = runSpan{ctx: ctx, span: span}
		o.mu.Unlock()

	case EventStage:
		ev, ok := event.Data.(planner.StageEvent)
		if !ok {
			return
		}
		o.mu.Lock()
		run, found := o.runs[event.RunID]
		o.mu.Unlock()
		if !found {
			return
		}
		_, span := o.tracer.Start(run.ctx, "optimizer."+string(ev.Stage),
			trace.WithTimestamp(event.Timestamp.Add(-ev.Duration)),
			trace.WithAttributes(
				attribute.Int("nodes", ev.Nodes),
				attribute.Int("snapshots", ev.Snapshots),
			))
		if ev.Err != nil {
			span.RecordError(ev.Err)
			span.SetStatus(codes.Error, ev.Err.Error())
		}
		span.End(trace.WithTimestamp(event.Timestamp))

	case EventExplainEnd, EventExplainFailed:
		o.mu.Lock()
		run, found := o.runs[event.RunID]
		delete(o.runs, event.RunID)
		o.mu.Unlock()
		if !found {
			return
		}
		if err, ok := event.Data.(error); ok {
			run.span.RecordError(err)
			run.span.SetStatus(codes.Error, err.Error())
		}
		run.span.End(trace.WithTimestamp(event.Timestamp))
	}
}
