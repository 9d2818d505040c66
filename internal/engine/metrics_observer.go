package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/leengari/mini-optimizer/internal/planner"
)

// MetricsObserver exports explain outcomes and per-stage timings.
type MetricsObserver struct {
	explains      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageNodes    *prometheus.GaugeVec
	stageFailures *prometheus.CounterVec
	snapshots     prometheus.Counter
}

// NewMetricsObserver registers the optimizer metrics with reg.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	f := promauto.With(reg)
	return &MetricsObserver{
		explains: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qopt",
			Name:      "explains_total",
			Help:      "explain runs by outcome",
		}, []string{"outcome"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qopt",
			Subsystem: "optimizer",
			Name:      "stage_duration_seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			Help:      "time spent in each optimizer stage",
		}, []string{"stage"}),
		stageNodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "qopt",
			Subsystem: "optimizer",
			Name:      "stage_nodes",
			Help:      "tree size after the most recent run of each stage",
		}, []string{"stage"}),
		stageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qopt",
			Subsystem: "optimizer",
			Name:      "stage_failures_total",
			Help:      "optimizer stages that returned an error",
		}, []string{"stage"}),
		snapshots: f.NewCounter(prometheus.CounterOpts{
			Namespace: "qopt",
			Name:      "snapshots_total",
			Help:      "snapshots produced by successful explain runs",
		}),
	}
}

func (m *MetricsObserver) OnEvent(event Event) {
	switch event.Type {
	case EventStage:
		ev, ok := event.Data.(planner.StageEvent)
		if !ok {
			return
		}
		stage := string(ev.Stage)
		m.stageDuration.WithLabelValues(stage).Observe(ev.Duration.Seconds())
		if ev.Err != nil {
			m.stageFailures.WithLabelValues(stage).Inc()
			return
		}
		m.stageNodes.WithLabelValues(stage).Set(float64(ev.Nodes))
	case EventExplainEnd:
		m.explains.WithLabelValues("ok").Inc()
		if n, ok := event.Data.(int); ok {
			m.snapshots.Add(float64(n))
		}
	case EventExplainFailed:
		m.explains.WithLabelValues("failed").Inc()
	}
}
