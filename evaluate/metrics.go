package evaluate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's prometheus instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RunsTotal          prometheus.Counter
	RunFailuresTotal   prometheus.Counter
	RecordsTotal       prometheus.Counter
	QueryFailuresTotal prometheus.Counter
	DocumentsByStatus  *prometheus.CounterVec
}

// NewMetrics registers the pipeline metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocm_runs_total",
			Help: "Evaluation runs started.",
		}),
		RunFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocm_run_failures_total",
			Help: "Evaluation runs aborted by a setup failure.",
		}),
		RecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocm_records_total",
			Help: "Result records produced by the query normalizer.",
		}),
		QueryFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocm_query_failures_total",
			Help: "Query declarations whose execution failed and contributed zero records.",
		}),
		DocumentsByStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ocm_documents_total",
			Help: "Documents graded, by derived curation status.",
		}, []string{"status"}),
	}
}

func (m *Metrics) runStarted() {
	if m != nil {
		m.RunsTotal.Inc()
	}
}

func (m *Metrics) runFailed() {
	if m != nil {
		m.RunFailuresTotal.Inc()
	}
}

func (m *Metrics) recordsProduced(n int) {
	if m != nil {
		m.RecordsTotal.Add(float64(n))
	}
}

func (m *Metrics) queryFailed() {
	if m != nil {
		m.QueryFailuresTotal.Inc()
	}
}

func (m *Metrics) documentGraded(status string) {
	if m != nil {
		m.DocumentsByStatus.WithLabelValues(status).Inc()
	}
}
