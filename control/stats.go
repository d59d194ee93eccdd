// File: control/stats.go
// Author: momentics <momentics@gmail.com>
//
// Lock-free statistics counter array (spec §4.1 stats_add/stats_read,
// §3 Statistics). One atomic per counter; reads take an independent
// snapshot per field so a concurrent writer can never corrupt a single
// field, though the whole-array snapshot is not a single atomic operation:
// a reader may see one counter advance before another updated by the same
// packet.

package control

import (
	"sync/atomic"

	"github.com/momentics/packetengine/api"
)

// Stats implements classify.Counters and exposes read-only snapshots for
// control_get_stats and the Prometheus adapter.
type Stats struct {
	values [api.StatCount]atomic.Uint64
}

// NewStats returns a zeroed counter array.
func NewStats() *Stats {
	return &Stats{}
}

// Add implements classify.Counters: adds delta to counter idx.
func (s *Stats) Add(idx api.StatIndex, delta uint64) {
	if idx < 0 || int(idx) >= len(s.values) {
		return
	}
	s.values[idx].Add(delta)
}

// Snapshot returns the current value of every counter (spec §4.5
// control_get_stats).
func (s *Stats) Snapshot() api.Statistics {
	var out api.Statistics
	for i := range s.values {
		out.Values[i] = s.values[i].Load()
	}
	return out
}

// Reset zeroes every counter. Used by tests and by long-running processes
// that periodically rebase cumulative counters.
func (s *Stats) Reset() {
	for i := range s.values {
		s.values[i].Store(0)
	}
}
