// Package metrics exports run and request outcomes as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/ports"
)

// Observer implements ports.RunObserver with Prometheus collectors.
type Observer struct {
	rows     *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewObserver creates an observer and registers its collectors with reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aq2rdb_rows_total",
			Help: "Requests processed, by datatype and outcome.",
		}, []string{"datatype", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aq2rdb_runs_total",
			Help: "Finished runs, by exit status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aq2rdb_run_duration_seconds",
			Help:    "Wall time of finished runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{o.rows, o.runs, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnRequest counts one request.
func (o *Observer) OnRequest(datatype domain.Datatype, outcome string, _ domain.Status) {
	dt := string(datatype)
	if !datatype.In(domain.Datatypes...) {
		dt = "invalid"
	}
	o.rows.WithLabelValues(dt, outcome).Inc()
}

// OnRun counts one finished run.
func (o *Observer) OnRun(summary ports.RunSummary) {
	o.runs.WithLabelValues(strconv.Itoa(int(summary.Status))).Inc()
	if !summary.Finished.IsZero() && !summary.Started.IsZero() {
		o.duration.Observe(summary.Finished.Sub(summary.Started).Seconds())
	}
}

// Multi fans observations out to several observers.
type Multi []ports.RunObserver

// OnRequest forwards to every observer.
func (m Multi) OnRequest(datatype domain.Datatype, outcome string, status domain.Status) {
	for _, o := range m {
		o.OnRequest(datatype, outcome, status)
	}
}

// OnRun forwards to every observer.
func (m Multi) OnRun(summary ports.RunSummary) {
	for _, o := range m {
		o.OnRun(summary)
	}
}
