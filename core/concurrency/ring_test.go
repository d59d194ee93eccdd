package concurrency

import (
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRingBuffer_MPMC(t *testing.T) {
	q := NewRingBuffer[int](1024)
	producers := 10
	consumers := 10
	itemsPerProducer := 5000

	var wg sync.WaitGroup
	var sentSum int64
	var receivedSum int64

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				val := pid*itemsPerProducer + i + 1
				for !q.Enqueue(val) {
					runtime.Gosched()
				}
				atomic.AddInt64(&sentSum, int64(val))
			}
		}(p)
	}

	totalItems := int64(producers * itemsPerProducer)
	var receivedCount int64
	var consumerWg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			for {
				if val, ok := q.Dequeue(); ok {
					atomic.AddInt64(&receivedSum, int64(val))
					if atomic.AddInt64(&receivedCount, 1) == totalItems {
						return
					}
				} else if atomic.LoadInt64(&receivedCount) >= totalItems {
					return
				} else {
					runtime.Gosched()
				}
			}
		}()
	}

	wg.Wait()
	consumerWg.Wait()

	if sentSum != receivedSum {
		t.Fatalf("sent sum %d != received sum %d", sentSum, receivedSum)
	}
}

func TestRingBuffer_PropertyInvariants(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		ring := NewRingBuffer[int](64)

		size := 0
		for i := 0; i < 5000; i++ {
			switch rng.Intn(2) {
			case 0:
				if ring.Enqueue(rng.Intn(100000)) {
					size++
				}
			case 1:
				if _, ok := ring.Dequeue(); ok {
					size--
				}
			}
			if size != ring.Len() {
				t.Fatalf("invariant failed: expected %d, got %d", size, ring.Len())
			}
			if ring.Len() < 0 || ring.Len() > ring.Cap() {
				t.Fatalf("ring length out of bounds: %d", ring.Len())
			}
		}
	}
}

func TestRingBuffer_RoundsUpToPowerOfTwo(t *testing.T) {
	r := NewRingBuffer[int](100)
	if r.Cap() != 128 {
		t.Fatalf("expected capacity rounded to 128, got %d", r.Cap())
	}
}
