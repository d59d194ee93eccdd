package drainer

import "testing"

func TestFlowTable_FirstObservationIsZero(t *testing.T) {
	ft := NewFlowTable(16, 0)
	if got := ft.Observe(1, 1000); got != 0 {
		t.Fatalf("first observation = %d, want 0", got)
	}
}

func TestFlowTable_SecondObservationComputesInterArrival(t *testing.T) {
	ft := NewFlowTable(16, 0)
	ft.Observe(1, 1_000_000)       // ns
	got := ft.Observe(1, 3_000_000) // +2ms later
	if got != 2000 {
		t.Fatalf("inter_arrival_us = %d, want 2000", got)
	}
}

func TestFlowTable_BoundedSizeEvictsOldest(t *testing.T) {
	ft := NewFlowTable(2, 0)
	ft.Observe(1, 1000)
	ft.Observe(2, 2000)
	ft.Observe(3, 3000) // should evict flow 1

	if ft.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ft.Len())
	}
	// flow 1 was evicted, so its next observation looks like a fresh flow.
	if got := ft.Observe(1, 4000); got != 0 {
		t.Fatalf("evicted flow's re-observation = %d, want 0 (fresh)", got)
	}
}

func TestFlowTable_DisabledWhenMaxSizeNonPositive(t *testing.T) {
	ft := NewFlowTable(0, 0)
	ft.Observe(1, 1000)
	if got := ft.Observe(1, 2000); got != 0 {
		t.Fatalf("disabled flow table should always return 0, got %d", got)
	}
	if ft.Len() != 0 {
		t.Fatalf("disabled flow table should track nothing, Len() = %d", ft.Len())
	}
}

func TestFlowTable_RecentTouchMovesFlowToBackOfEvictionOrder(t *testing.T) {
	ft := NewFlowTable(2, 0)
	ft.Observe(1, 1_000_000)
	ft.Observe(2, 1_100_000)
	ft.Observe(1, 1_200_000) // re-touch flow 1: it is now the most recently used
	ft.Observe(3, 1_300_000) // must evict flow 2, the least recently used

	if got := ft.Observe(1, 1_400_000); got == 0 {
		t.Fatalf("flow 1 should still be tracked with a non-zero inter-arrival")
	}
	if got := ft.Observe(2, 1_500_000); got != 0 {
		t.Fatalf("flow 2 should have been evicted and look fresh, got inter-arrival %d", got)
	}
}
