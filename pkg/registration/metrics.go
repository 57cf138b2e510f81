package registration

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-matchcard/pkg/validation"
)

// Metrics is a Prometheus backed Observer.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Exports            *prometheus.CounterVec
	ExportDuration     prometheus.Histogram
}

var _ Observer = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg. A nil reg
// uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchcard_submissions_total",
			Help: "Registration submissions by outcome",
		}, []string{"result"}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchcard_validation_failures_total",
			Help: "Field validation failures by field and rule",
		}, []string{"field", "rule"}),
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchcard_exports_total",
			Help: "Card exports by outcome",
		}, []string{"result"}),
		ExportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchcard_export_duration_seconds",
			Help:    "Time spent rasterising summary cards",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5},
		}),
	}
}

func (m *Metrics) Submitted(valid bool, issues []validation.Issue) {
	if valid {
		m.Submissions.WithLabelValues("valid").Inc()
		return
	}
	m.Submissions.WithLabelValues("invalid").Inc()
	for _, issue := range issues {
		m.ValidationFailures.WithLabelValues(issue.Field, issue.Rule).Inc()
	}
}

func (m *Metrics) Exported(elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Exports.WithLabelValues(result).Inc()
	m.ExportDuration.Observe(elapsed.Seconds())
}
