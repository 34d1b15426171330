// See:
//   https://godoc.org/github.com/prometheus/client_golang/prometheus/push#Pusher.Push
//   https://prometheus.io/docs/instrumenting/pushing/
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	StatusSuccess         = "success"
	StatusMissingArtifact = "missing_artifact"
	StatusFailed          = "failed"
	StatusSkipped         = "skipped"
)

// LabelNames are the labels every build metric carries.
var LabelNames = []string{"version", "toolchain"}

// Metrics represents a collection of build metrics to be registered on a
// Prometheus metrics registry or pushed to a Pushgateway.
type Metrics struct {
	StartedCounter          *prometheus.CounterVec
	HandledCounter          *prometheus.CounterVec
	HandledHistogramEnabled bool
	HandledHistogramOpts    prometheus.HistogramOpts
	HandledHistogram        *prometheus.HistogramVec
}

// DefaultBuckets span one minute to two hours.
var DefaultBuckets = []float64{60, 120, 300, 600, 900, 1200, 1800, 3600, 7200}

func NewMetrics(app string, counterOpts ...CounterOption) *Metrics {
	opts := counterOptions(counterOpts)
	return &Metrics{
		StartedCounter: prometheus.NewCounterVec(
			opts.apply(prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_build_started_total", app),
				Help: "Total number of release builds started.",
			}), LabelNames),
		HandledCounter: prometheus.NewCounterVec(
			opts.apply(prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_build_handled_total", app),
				Help: "Total number of release builds completed, regardless of success or failure.",
			}), append(append([]string{}, LabelNames...), "status")),
		HandledHistogramEnabled: false,
		HandledHistogramOpts: prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_build_handling_seconds", app),
			Help:    "Histogram of build duration (seconds) of releases.",
			Buckets: DefaultBuckets,
		},
	}
}

// EnableHandlingTimeHistogram enables histograms being registered when
// registering the Metrics on a Prometheus registry.
func (m *Metrics) EnableHandlingTimeHistogram(opts ...HistogramOption) {
	for _, o := range opts {
		o(&m.HandledHistogramOpts)
	}
	if !m.HandledHistogramEnabled {
		m.HandledHistogram = prometheus.NewHistogramVec(
			m.HandledHistogramOpts,
			LabelNames,
		)
	}
	m.HandledHistogramEnabled = true
}

// Observe records one build attempt for the release and toolchain in labelValues.
func (m *Metrics) Observe(startTime, endTime time.Time, status string, labelValues ...string) {
	m.StartedCounter.WithLabelValues(labelValues...).Inc()
	counterLabels := append([]string{}, labelValues...)
	counterLabels = append(counterLabels, status)
	m.HandledCounter.WithLabelValues(counterLabels...).Inc()
	if m.HandledHistogramEnabled {
		m.HandledHistogram.WithLabelValues(labelValues...).Observe(endTime.Sub(startTime).Seconds())
	}
}

// Describe sends the super-set of all possible descriptors of metrics
// collected by this Collector to the provided channel and returns once
// the last descriptor has been sent.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.StartedCounter.Describe(ch)
	m.HandledCounter.Describe(ch)
	if m.HandledHistogramEnabled {
		m.HandledHistogram.Describe(ch)
	}
}

// Collect is called by the Prometheus registry when collecting
// metrics. The implementation sends each collected metric via the
// provided channel and returns once the last metric has been sent.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.StartedCounter.Collect(ch)
	m.HandledCounter.Collect(ch)
	if m.HandledHistogramEnabled {
		m.HandledHistogram.Collect(ch)
	}
}

// pushBase can be something like http://pushgateway:9091 (for pushgateway)
// or http://pushgateway:9091/api/ui (for weaveworks/prom-aggregation-gateway)
func (m *Metrics) Push(pushBase, job string) error {
	return push.New(pushBase, job).
		Collector(m).
		Push()
}
