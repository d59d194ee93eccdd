package control

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/momentics/packetengine/api"
)

func TestMetricsCollector_ExportsCounters(t *testing.T) {
	stats := NewStats()
	stats.Add(api.StatTotalPackets, 7)
	mc := NewMetricsCollector(stats)

	count := testutil.CollectAndCount(mc)
	if count != api.StatCount {
		t.Fatalf("collected %d metrics, want %d", count, api.StatCount)
	}
}
