// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Read-only Prometheus adapter over Stats (spec §4.5 "metrics export",
// ambient stack: the engine's counters must be observable the way the rest
// of the corpus exposes runtime metrics). Generalizes the teacher's
// map-based MetricsRegistry into a prometheus.Collector so counters are
// scraped rather than polled through a bespoke snapshot API.

package control

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/packetengine/api"
)

// MetricsCollector adapts a Stats instance to prometheus.Collector. All
// metrics are gauges: the underlying counters are monotonically increasing
// but may wrap (spec §3 "saturating/wrapping u64"), so they are exported as
// gauges rather than counters to avoid Prometheus's reset-detection logic
// misfiring on wraparound.
type MetricsCollector struct {
	stats *Stats
	descs [api.StatCount]*prometheus.Desc
}

// NewMetricsCollector builds a collector over stats, namespaced under
// "packetengine".
func NewMetricsCollector(stats *Stats) *MetricsCollector {
	mc := &MetricsCollector{stats: stats}
	for i := 0; i < api.StatCount; i++ {
		idx := api.StatIndex(i)
		mc.descs[i] = prometheus.NewDesc(
			"packetengine_"+idx.Name(),
			"packet engine counter: "+idx.Name(),
			nil, nil,
		)
	}
	return mc
}

// Describe implements prometheus.Collector.
func (mc *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range mc.descs {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (mc *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := mc.stats.Snapshot()
	for i := 0; i < api.StatCount; i++ {
		ch <- prometheus.MustNewConstMetric(
			mc.descs[i], prometheus.GaugeValue, float64(snap.Get(api.StatIndex(i))),
		)
	}
}

var _ prometheus.Collector = (*MetricsCollector)(nil)
