package observability

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records transformer lifecycle metrics. It satisfies the
// transformer's Observer contract and can be registered with WithObserver.
type PipelineMetrics struct {
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	runOutcome    *prom.CounterVec
	pagesOut      prom.Histogram
}

// NewPipelineMetrics constructs and registers pipeline metrics on reg.
// A nil registry gets a private one, useful in tests.
func NewPipelineMetrics(reg *prom.Registry) *PipelineMetrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	m := &PipelineMetrics{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pageflow",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pageflow",
			Name:      "run_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pageflow",
			Name:      "run_outcomes_total",
			Help:      "Pipeline run outcomes",
		}, []string{"outcome"}),
		pagesOut: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pageflow",
			Name:      "pages_final_count",
			Help:      "Final page collection size per successful run",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000},
		}),
	}
	reg.MustRegister(m.stageDuration, m.runDuration, m.runOutcome, m.pagesOut)
	return m
}

// PipelineStarted implements the observer contract.
func (m *PipelineMetrics) PipelineStarted(runID string, pages int) {}

// StageCompleted records a stage duration.
func (m *PipelineMetrics) StageCompleted(runID, stage string, pages int, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// PipelineFinished records run duration, outcome, and final page count.
func (m *PipelineMetrics) PipelineFinished(runID string, pages int, elapsed time.Duration, err error) {
	m.runDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.runOutcome.WithLabelValues("failed").Inc()
		return
	}
	m.runOutcome.WithLabelValues("success").Inc()
	m.pagesOut.Observe(float64(pages))
}
