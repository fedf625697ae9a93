package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Exporter publishes a Metrics snapshot as Prometheus metrics on every scrape.
type Exporter struct {
	metrics *Metrics

	opTotal     *prometheus.Desc
	errorTotal  *prometheus.Desc
	eventTotal  *prometheus.Desc
	sinkDrops   *prometheus.Desc
	sinkClosed  *prometheus.Desc
	opLatencyNs *prometheus.Desc
	opLatencyN  *prometheus.Desc
	opLatencyMx *prometheus.Desc
}

var _ prometheus.Collector = (*Exporter)(nil)

// NewExporter creates a collector over m.
func NewExporter(namespace string, m *Metrics) *Exporter {
	if namespace == "" {
		namespace = "ledger"
	}
	return &Exporter{
		metrics: m,
		opTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "operation", "total"),
			"Public operations by outcome",
			[]string{"operation", "result"}, nil,
		),
		errorTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "operation", "errors_total"),
			"Rejected operations by error code",
			[]string{"code"}, nil,
		),
		eventTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "events", "emitted_total"),
			"Emitted events by type",
			[]string{"type"}, nil,
		),
		sinkDrops: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "events", "dropped_total"),
			"Events refused by a full sink",
			nil, nil,
		),
		sinkClosed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "events", "closed_total"),
			"Events emitted after the sink closed",
			nil, nil,
		),
		opLatencyNs: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "operation", "duration_seconds_sum"),
			"Total time spent in operations",
			[]string{"operation"}, nil,
		),
		opLatencyN: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "operation", "duration_seconds_count"),
			"Number of timed operations",
			[]string{"operation"}, nil,
		),
		opLatencyMx: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "operation", "duration_seconds_max"),
			"Slowest observed operation",
			[]string{"operation"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.opTotal
	ch <- e.errorTotal
	ch <- e.eventTotal
	ch <- e.sinkDrops
	ch <- e.sinkClosed
	ch <- e.opLatencyNs
	ch <- e.opLatencyN
	ch <- e.opLatencyMx
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	s := e.metrics.Snapshot()

	for op, v := range s.OpSuccess {
		ch <- prometheus.MustNewConstMetric(e.opTotal, prometheus.CounterValue, float64(v), op.String(), "ok")
	}
	for op, v := range s.OpFailure {
		ch <- prometheus.MustNewConstMetric(e.opTotal, prometheus.CounterValue, float64(v), op.String(), "error")
	}
	for code, v := range s.ErrorCounts {
		ch <- prometheus.MustNewConstMetric(e.errorTotal, prometheus.CounterValue, float64(v), code.String())
	}
	for t, v := range s.EventCounts {
		ch <- prometheus.MustNewConstMetric(e.eventTotal, prometheus.CounterValue, float64(v), t.String())
	}
	ch <- prometheus.MustNewConstMetric(e.sinkDrops, prometheus.CounterValue, float64(s.SinkDrops))
	ch <- prometheus.MustNewConstMetric(e.sinkClosed, prometheus.CounterValue, float64(s.SinkClosed))
	for op, l := range s.OpLatency {
		ch <- prometheus.MustNewConstMetric(e.opLatencyNs, prometheus.CounterValue, l.Sum.Seconds(), op.String())
		ch <- prometheus.MustNewConstMetric(e.opLatencyN, prometheus.CounterValue, float64(l.Count), op.String())
		ch <- prometheus.MustNewConstMetric(e.opLatencyMx, prometheus.GaugeValue, l.Max.Seconds(), op.String())
	}
}
