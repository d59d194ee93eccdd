// File: xdp/fallback.go
// Author: momentics <momentics@gmail.com>
//
// Portable, copy-based capture path used when ZeroCopyMode is false or the
// platform has no AF_PACKET ring (spec §4.3a "Non-Linux builds fall back to
// a copy-based reader behind the same xdp.Queue interface"). Grounded on
// the go-pcap retrieval example's live-device capture via
// github.com/google/gopacket/pcap.
package xdp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gopacket/pcap"

	"github.com/momentics/packetengine/api"
)

// CopySource reads frames via a libpcap live capture handle and copies each
// one into a Slab-backed frame before classification.
type CopySource struct {
	handle *pcap.Handle
}

// NewCopySource opens a live capture handle on iface with a small read
// timeout so Run can observe context cancellation promptly.
func NewCopySource(iface string, snaplen int) (*CopySource, error) {
	handle, err := pcap.OpenLive(iface, int32(snaplen), true, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("xdp: pcap open %q: %w", iface, err)
	}
	return &CopySource{handle: handle}, nil
}

// Run reads frames in a loop, copying each captured packet into a frame
// acquired from queue and invoking classify.
func (s *CopySource) Run(ctx context.Context, queue *Queue, classify Classify) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		data, _, err := s.handle.ReadPacketData()
		if err != nil {
			if err == pcap.NextErrorTimeoutExpired {
				continue
			}
			return fmt.Errorf("xdp: read packet: %w", err)
		}

		frame, ok := queue.Acquire(uint16(queue.Slab().FrameSize()))
		if !ok {
			continue // fill ring momentarily exhausted; drop this read
		}
		n := copy(frame.Bytes(), data)
		frame = frame.WithLen(uint16(n))

		if verdict := classify(frame); verdict != api.VerdictSteer {
			queue.Release(frame)
		}
	}
}

// Close shuts down the capture handle.
func (s *CopySource) Close() error {
	s.handle.Close()
	return nil
}
