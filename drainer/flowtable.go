// File: drainer/flowtable.go
// Author: momentics <momentics@gmail.com>
//
// Bounded flow table used to compute inter-arrival time per flow (spec §3
// FlowTable, §4.4 step 3c). Eviction order is FIFO-by-last-touch, built on
// github.com/eapache/queue the way the teacher's executor.go builds a task
// queue on the same package, generalized from task dispatch order to
// flow-staleness order.
package drainer

import (
	"sync"

	"github.com/eapache/queue"
)

// flowEntry records the last time a flow was observed and a generation
// counter used to detect and skip stale eviction-queue entries.
type flowEntry struct {
	lastSeenNs uint64
	generation uint64
}

// flowTouch is the unit of work placed on the eviction queue: a flow hash
// plus the generation it was valid for when enqueued.
type flowTouch struct {
	hash       uint64
	generation uint64
}

// FlowTable tracks per-flow last-seen timestamps with bounded memory (spec
// §3 "Non-goals: no long-term flow storage beyond the configured
// FlowTableEntries bound").
type FlowTable struct {
	mu      sync.Mutex
	entries map[uint64]*flowEntry
	order   *queue.Queue
	maxSize int
	timeout int64 // nanoseconds; 0 = no timeout eviction
}

// NewFlowTable creates a table bounded to maxSize entries. maxSize <= 0
// disables the flow table (Observe always returns 0 inter-arrival).
func NewFlowTable(maxSize int, timeoutNs int64) *FlowTable {
	return &FlowTable{
		entries: make(map[uint64]*flowEntry),
		order:   queue.New(),
		maxSize: maxSize,
		timeout: timeoutNs,
	}
}

// Observe records flowHash as seen at nowNs and returns the inter-arrival
// time since its previous observation, in microseconds (spec §3
// inter_arrival_us), or 0 for a flow's first packet.
func (ft *FlowTable) Observe(flowHash uint64, nowNs uint64) uint32 {
	if ft.maxSize <= 0 {
		return 0
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()

	e, ok := ft.entries[flowHash]
	var interArrivalUs uint32
	if ok {
		if ft.timeout > 0 && nowNs > e.lastSeenNs && int64(nowNs-e.lastSeenNs) > ft.timeout {
			interArrivalUs = 0 // treat as a new flow after a long gap
		} else if nowNs >= e.lastSeenNs {
			interArrivalUs = uint32((nowNs - e.lastSeenNs) / 1000)
		}
		e.lastSeenNs = nowNs
		e.generation++
	} else {
		ft.evictIfFull()
		e = &flowEntry{lastSeenNs: nowNs}
		ft.entries[flowHash] = e
	}
	ft.order.Add(flowTouch{hash: flowHash, generation: e.generation})
	return interArrivalUs
}

// evictIfFull drops the oldest live entry if the table is at capacity.
// Must be called with ft.mu held.
func (ft *FlowTable) evictIfFull() {
	for len(ft.entries) >= ft.maxSize && ft.order.Length() > 0 {
		t := ft.order.Remove().(flowTouch)
		e, ok := ft.entries[t.hash]
		if !ok || e.generation != t.generation {
			continue // stale tombstone: flow was touched again since this entry was queued
		}
		delete(ft.entries, t.hash)
	}
}

// Len returns the current number of tracked flows.
func (ft *FlowTable) Len() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.entries)
}
