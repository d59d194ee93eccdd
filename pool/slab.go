// File: pool/slab.go
// Package pool implements the fixed-size frame pool backing zero-copy
// transport (spec §4.3 "Frame pool").
// Author: momentics <momentics@gmail.com>
//
// A Slab is one contiguous allocation partitioned into FrameSize-byte
// frames. Ownership of a frame offset moves between the fill ring (free),
// the classifier (inflight), the RX ring (ready) and the drainer
// (processing); Slab itself only tracks the free set via a lock-free ring
// of free offsets, matching the teacher's slab_pool.go free-list design
// generalized from variable size classes to one fixed frame size.

package pool

import (
	"fmt"

	"github.com/momentics/packetengine/api"
	"github.com/momentics/packetengine/core/concurrency"
)

// Slab is a fixed frame-size, fixed frame-count memory pool implementing
// api.FrameSlab. Safe for concurrent Acquire/Release from multiple
// goroutines (the free ring is MPMC).
type Slab struct {
	mem       []byte
	frameSize int
	frameCnt  int
	free      *concurrency.RingBuffer[uint32]
	numaAlloc NUMAAllocator
}

// NewSlab allocates a slab of frameCount frames of frameSize bytes each,
// optionally NUMA-pinned to numaNode (-1 for system default), and seeds the
// free ring with every frame offset (spec §4.3 "initial state: all frames
// FREE").
func NewSlab(frameSize, frameCount, numaNode int) (*Slab, error) {
	if frameSize <= 0 || frameCount <= 0 {
		return nil, fmt.Errorf("pool: frameSize and frameCount must be positive")
	}

	na := createNUMAAllocator()
	var mem []byte
	if na != nil {
		mem, _ = na.Alloc(frameSize*frameCount, numaNode)
	}
	if mem == nil {
		mem = make([]byte, frameSize*frameCount)
	}

	s := &Slab{
		mem:       mem,
		frameSize: frameSize,
		frameCnt:  frameCount,
		free:      concurrency.NewRingBuffer[uint32](uint64(nextPow2(frameCount))),
		numaAlloc: na,
	}
	for i := 0; i < frameCount; i++ {
		s.free.Enqueue(uint32(i * frameSize))
	}
	return s, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Acquire removes one frame from the free set (spec §4.3 "fill ring:
// acquire"), returning ok=false if no frame is currently free.
func (s *Slab) Acquire(length uint16) (api.Frame, bool) {
	offset, ok := s.free.Dequeue()
	if !ok {
		return api.Frame{}, false
	}
	return api.NewFrame(s, offset, length), true
}

// At implements api.FrameSlab.
func (s *Slab) At(offset uint32, length uint16) []byte {
	end := int(offset) + int(length)
	if int(offset) < 0 || end > len(s.mem) {
		return nil
	}
	return s.mem[offset:end]
}

// FrameSize implements api.FrameSlab.
func (s *Slab) FrameSize() int { return s.frameSize }

// FrameCount implements api.FrameSlab.
func (s *Slab) FrameCount() int { return s.frameCnt }

// Release implements api.FrameSlab: returns the frame's offset to the free
// ring. A full free ring (more releases than frames, a caller bug) drops
// the release silently rather than panicking on the hot path.
func (s *Slab) Release(f api.Frame) {
	s.free.Enqueue(f.Offset)
}

// Available reports how many frames are currently free, for diagnostics
// and tests.
func (s *Slab) Available() int {
	return s.free.Len()
}

// Close releases the slab's backing memory (spec §4.7 control_destroy:
// "release all pool memory"). Safe to call once after all frames have been
// returned to the free ring.
func (s *Slab) Close() {
	if s.numaAlloc != nil {
		s.numaAlloc.Free(s.mem)
	}
}

var _ api.FrameSlab = (*Slab)(nil)
