// File: xdp/queue.go
// Package xdp implements the zero-copy RX ring / fill ring transport of
// spec §4.3: frames flow classifier -> RX ring -> drainer -> fill ring ->
// classifier, never copied across that boundary on the Linux fast path.
// Author: momentics <momentics@gmail.com>
//
// Queue is the steering target the classifier writes to (classify.Steerer)
// and the source the drainer reads from. One Queue instance backs one
// steered queue ID; Config.QueueIDs determines how many exist.
package xdp

import (
	"context"
	"time"

	"github.com/momentics/packetengine/api"
	"github.com/momentics/packetengine/core/concurrency"
	"github.com/momentics/packetengine/pool"
)

// Queue pairs an RX ring (classifier -> drainer) with a fill ring (drainer
// -> classifier's frame pool) over one Slab, implementing classify.Steerer
// on the producer side and a bounded blocking Dequeue on the consumer side.
type Queue struct {
	id    uint32
	slab  *pool.Slab
	rx    *concurrency.RingBuffer[api.Frame]
	ready chan struct{}
}

// NewQueue allocates a queue backed by its own Slab of frameCount frames of
// frameSize bytes, with an RX ring of ringCapacity descriptors.
func NewQueue(id uint32, frameSize, frameCount int, ringCapacity uint64, numaNode int) (*Queue, error) {
	slab, err := pool.NewSlab(frameSize, frameCount, numaNode)
	if err != nil {
		return nil, err
	}
	return &Queue{
		id:    id,
		slab:  slab,
		rx:    concurrency.NewRingBuffer[api.Frame](ringCapacity),
		ready: make(chan struct{}, 1),
	}, nil
}

// ID returns this queue's steer-target identifier.
func (q *Queue) ID() uint32 { return q.id }

// Slab exposes the backing frame pool, e.g. for a platform-specific RX
// source that writes wire bytes directly into frames before enqueuing.
func (q *Queue) Slab() *pool.Slab { return q.slab }

// Acquire obtains a free frame from the fill ring (classifier/source side).
func (q *Queue) Acquire(length uint16) (api.Frame, bool) {
	return q.slab.Acquire(length)
}

// Enqueue implements classify.Steerer: publishes a classified frame to the
// RX ring for the drainer to consume. Never blocks; returns false on a full
// ring (spec §4.3 "Overflow policy": caller must fold this into
// dropped_packets, not retry).
func (q *Queue) Enqueue(queueID uint32, frame api.Frame) bool {
	if queueID != q.id {
		return false
	}
	ok := q.rx.Enqueue(frame)
	if ok {
		select {
		case q.ready <- struct{}{}:
		default:
		}
	}
	return ok
}

// TryDequeue removes one frame from the RX ring without blocking.
func (q *Queue) TryDequeue() (api.Frame, bool) {
	return q.rx.Dequeue()
}

// Dequeue blocks until a frame is available, the context is done, or
// timeout elapses (spec §5 "bounded wait on ring readiness, default 1s").
// Returns ok=false on context cancellation or timeout with nothing ready.
func (q *Queue) Dequeue(ctx context.Context) (api.Frame, bool) {
	if f, ok := q.rx.Dequeue(); ok {
		return f, true
	}
	select {
	case <-q.ready:
		return q.rx.Dequeue()
	case <-ctx.Done():
		return api.Frame{}, false
	case <-time.After(dequeueWaitTimeout):
		return api.Frame{}, false
	}
}

// dequeueWaitTimeout bounds how long Dequeue waits for a frame.
const dequeueWaitTimeout = time.Second

// Len reports the number of frames currently queued for the drainer.
func (q *Queue) Len() int { return q.rx.Len() }

// Release returns a frame to the fill ring once the drainer is finished
// with it (spec §4.3 lifecycle: PROCESSING -> FREE). The frame goes back to
// the slab it was acquired from, which under cross-queue steering is another
// queue's slab.
func (q *Queue) Release(f api.Frame) {
	f.Release()
}

// Close releases the queue's backing slab memory.
func (q *Queue) Close() {
	q.slab.Close()
}
