// File: api/frame.go
// Package api defines the Frame token and FrameSlab contract.
// Author: momentics <momentics@gmail.com>
//
// A Frame is an opaque byte range [Offset, Offset+Len) inside a shared frame
// pool (spec §3). At most one owner holds a given offset at a time: the fill
// ring (free), the classifier (inflight), the RX ring (ready), or the
// drainer (processing) — see spec §4.3 "Lifecycle of a frame offset".

package api

// Frame is a move-only token referencing a byte range inside a FrameSlab.
// Converted to a small value type (not an interface) to avoid boxing on the
// per-packet hot path, matching the teacher's Buffer value-type design.
type Frame struct {
	Offset uint32
	Len    uint16
	slab   FrameSlab
}

// NewFrame builds a Frame bound to the given slab.
func NewFrame(slab FrameSlab, offset uint32, length uint16) Frame {
	return Frame{Offset: offset, Len: length, slab: slab}
}

// Bytes returns the byte slice backing this frame. Valid only while the
// caller holds ownership of the frame (see lifecycle above).
func (f Frame) Bytes() []byte {
	if f.slab == nil {
		return nil
	}
	return f.slab.At(f.Offset, f.Len)
}

// WithLen returns a copy of f with a different logical length, used once the
// classifier knows the real wire length of the packet written into the frame.
func (f Frame) WithLen(length uint16) Frame {
	f.Len = length
	return f
}

// WithSlab binds a frame descriptor to the slab that owns its memory. Used by
// ring consumers that only carry (offset, len) across the wire and need to
// resolve them against the local FrameSlab.
func (f Frame) WithSlab(s FrameSlab) Frame {
	f.slab = s
	return f
}

// Release returns the frame to its fill ring, transferring ownership back to
// "free". Implementations of FrameSlab decide how that transfer happens.
func (f Frame) Release() {
	if f.slab != nil {
		f.slab.Release(f)
	}
}

// FrameSlab is the shared, contiguous frame pool partitioned into
// fixed-size slots (spec §4.3 "Frame pool"). No allocation occurs once the
// slab is constructed; Acquire/Release only move ownership between rings.
type FrameSlab interface {
	// At resolves an (offset, len) descriptor to a byte slice view into the
	// pool's backing memory. Never allocates.
	At(offset uint32, length uint16) []byte

	// FrameSize returns the fixed per-frame capacity.
	FrameSize() int

	// FrameCount returns the total number of frames partitioned from the pool.
	FrameCount() int

	// Release returns a frame to the fill ring (FREE state).
	Release(f Frame)
}
