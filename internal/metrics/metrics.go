package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "pdfqa"

// Metrics groups the pipeline collectors on a private registry so tests can
// build as many instances as they like.
type Metrics struct {
	Registry *prometheus.Registry

	uploads     *prometheus.CounterVec
	questions   *prometheus.CounterVec
	stage       *prometheus.HistogramVec
	indexChunks prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "PDF uploads by result.",
		}, []string{"result"}),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions by result.",
		}, []string{"result"}),
		stage: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		indexChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_chunks",
			Help:      "Chunks in the active index.",
		}),
	}

	m.Registry.MustRegister(
		m.uploads,
		m.questions,
		m.stage,
		m.indexChunks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Upload(result string) { m.uploads.WithLabelValues(result).Inc() }

func (m *Metrics) Question(result string) { m.questions.WithLabelValues(result).Inc() }

func (m *Metrics) IndexChunks(n int) { m.indexChunks.Set(float64(n)) }

// Stage returns a func that records the elapsed time of stage when called.
func (m *Metrics) Stage(stage string) func() {
	start := time.Now()
	return func() {
		m.stage.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
