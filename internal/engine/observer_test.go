package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gotest.tools/v3/assert"

	"github.com/leengari/mini-optimizer/internal/planner"
)

// MockObserver is a test observer that records events
type MockObserver struct {
	mu     sync.Mutex
	Events []Event
}

func (m *MockObserver) OnEvent(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

func (m *MockObserver) types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EventType
	for _, ev := range m.Events {
		out = append(out, ev.Type)
	}
	return out
}

func TestAddObserver(t *testing.T) {
	eng := New(nil)
	observer := &MockObserver{}

	eng.AddObserver(observer)

	if len(eng.observers) != 1 {
		t.Errorf("Expected 1 observer, got %d", len(eng.observers))
	}
}

func TestRemoveObserver(t *testing.T) {
	eng := New(nil)
	observer := &MockObserver{}

	eng.AddObserver(observer)
	eng.RemoveObserver(observer)

	if len(eng.observers) != 0 {
		t.Errorf("Expected 0 observers, got %d", len(eng.observers))
	}
}

func TestNotifyWithNoObservers(t *testing.T) {
	eng := New(nil)

	// Should not panic
	eng.notify(Event{Type: EventLexStart, RunID: "test-run"})
}

func TestNotifyWithMultipleObservers(t *testing.T) {
	eng := New(nil)
	observer1 := &MockObserver{}
	observer2 := &MockObserver{}

	eng.AddObserver(observer1)
	eng.AddObserver(observer2)

	eng.notify(Event{Type: EventLexStart, RunID: "test-run", Data: "SELECT * FROM Customers"})

	assert.DeepEqual(t, observer1.types(), []EventType{EventLexStart})
	assert.DeepEqual(t, observer2.types(), []EventType{EventLexStart})
}

func TestEventTimestamp(t *testing.T) {
	eng := New(nil)
	observer := &MockObserver{}
	eng.AddObserver(observer)

	eng.notify(Event{Type: EventLexStart, RunID: "test-run"})

	if observer.Events[0].Timestamp.IsZero() {
		t.Error("Expected timestamp to be set, got zero value")
	}
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsObserver(reg)

	eng := newSampleEngine(t)
	eng.AddObserver(m)

	_, err := eng.Explain("SELECT FirstName FROM Customers WHERE CustomerID = 1")
	assert.NilError(t, err)
	_, err = eng.Explain("SELECT Nope FROM Customers")
	assert.Assert(t, err != nil)

	assert.Equal(t, testutil.ToFloat64(m.explains.WithLabelValues("ok")), 1.0)
	assert.Equal(t, testutil.ToFloat64(m.explains.WithLabelValues("failed")), 1.0)
	assert.Equal(t, testutil.ToFloat64(m.snapshots), 7.0)
	assert.Equal(t, testutil.ToFloat64(m.stageNodes.WithLabelValues(string(planner.StageBuild))), 3.0)
	assert.Equal(t, testutil.CollectAndCount(m.stageDuration), len(planner.Stages()))
}

func TestTracingObserver(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	eng := newSampleEngine(t)
	eng.AddObserver(NewTracingObserver(tp))

	res, err := eng.Explain("SELECT FirstName FROM Customers WHERE CustomerID = 1")
	assert.NilError(t, err)

	names := map[string]int{}
	var root sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		names[span.Name()]++
		if span.Name() == "explain" {
			root = span
		}
	}
	assert.Equal(t, names["explain"], 1)
	for _, s := range planner.Stages() {
		assert.Equal(t, names["optimizer."+string(s)], 1, s)
	}

	var runID string
	for _, kv := range root.Attributes() {
		if kv.Key == "run_id" {
			runID = kv.Value.AsString()
		}
	}
	assert.Equal(t, runID, res.RunID)
}

func TestLoggingObserverHandlesEveryPayload(t *testing.T) {
	lo := NewLoggingObserver(quiet)

	// Should not panic
	lo.OnEvent(Event{Type: EventLexStart, Data: "SELECT"})
	lo.OnEvent(Event{Type: EventStage, Data: planner.StageEvent{Stage: planner.StageBuild}})
	lo.OnEvent(Event{Type: EventExplainFailed, Data: errors.New("boom")})
}
