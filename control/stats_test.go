package control

import (
	"sync"
	"testing"

	"github.com/momentics/packetengine/api"
)

func TestStats_AddAndSnapshot(t *testing.T) {
	s := NewStats()
	s.Add(api.StatTotalPackets, 5)
	s.Add(api.StatTotalPackets, 3)
	s.Add(api.StatDroppedPackets, 1)

	snap := s.Snapshot()
	if got := snap.Get(api.StatTotalPackets); got != 8 {
		t.Fatalf("total_packets = %d, want 8", got)
	}
	if got := snap.Get(api.StatDroppedPackets); got != 1 {
		t.Fatalf("dropped_packets = %d, want 1", got)
	}
	if got := snap.Get(api.StatUDPPackets); got != 0 {
		t.Fatalf("udp_packets = %d, want 0", got)
	}
}

func TestStats_ConcurrentAddIsConsistent(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.Add(api.StatTotalPackets, 1)
			}
		}()
	}
	wg.Wait()

	if got := s.Snapshot().Get(api.StatTotalPackets); got != 50000 {
		t.Fatalf("total_packets = %d, want 50000", got)
	}
}

func TestStats_Reset(t *testing.T) {
	s := NewStats()
	s.Add(api.StatTotalPackets, 10)
	s.Reset()
	if got := s.Snapshot().Get(api.StatTotalPackets); got != 0 {
		t.Fatalf("total_packets after reset = %d, want 0", got)
	}
}

func TestStats_IgnoresOutOfRangeIndex(t *testing.T) {
	s := NewStats()
	s.Add(api.StatIndex(-1), 1)
	s.Add(api.StatIndex(api.StatCount+100), 1)
	// no panic, no effect on any named counter
	snap := s.Snapshot()
	for i := 0; i < api.StatCount; i++ {
		if snap.Get(api.StatIndex(i)) != 0 {
			t.Fatalf("counter %d unexpectedly non-zero", i)
		}
	}
}
