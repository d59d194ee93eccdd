// File: xdp/source.go
// Author: momentics <momentics@gmail.com>
//
// Source abstracts "how frames arrive from the wire", decoupling the
// classifier's pure function from the platform-specific capture mechanism
// (spec §4.3a). The engine opens one Source per steered queue, all on the
// same interface. The raw-socket source reads directly into frames acquired
// from its Queue, so no copy happens between the socket read and the
// classifier's view of the bytes; the libpcap source copies each packet into
// such a frame.
package xdp

import (
	"context"

	"github.com/momentics/packetengine/api"
)

// Classify is the function a Source invokes once per received frame. It
// must consume the frame synchronously: PASS/DROP frees it immediately,
// STEER hands ownership to the RX ring and the Source must not touch it
// again.
type Classify func(frame api.Frame) api.Verdict

// Source reads raw frames from a network interface, acquiring a frame from
// queue for each one, until Run's context is cancelled.
type Source interface {
	// Run blocks, feeding frames to classify until ctx is done or an
	// unrecoverable error occurs.
	Run(ctx context.Context, queue *Queue, classify Classify) error

	// Close releases any OS resources (sockets, mmap regions).
	Close() error
}
