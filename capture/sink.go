// File: capture/sink.go
// Package capture implements the optional capture path of spec §4.5
// enable_capture: a capped PCAP writer tee'd alongside the analysis
// callback.
// Author: momentics <momentics@gmail.com>
//
// Uses github.com/google/gopacket/pcapgo for the container format (spec §9
// Open Question "capture container format", resolved to PCAP) and
// github.com/rs/xid to tag each session with a correlation id for logs,
// grounded on the runZeroInc-conniver retrieval example's session-naming
// convention.
package capture

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/rs/xid"

	"github.com/momentics/packetengine/api"
)

// Sink implements api.CaptureSink, writing a capped number of raw frames to
// a PCAP file.
type Sink struct {
	mu        sync.Mutex
	file      *os.File
	writer    *pcapgo.Writer
	maxFrames int
	written   int
	sessionID xid.ID
}

// NewSink creates (or truncates) path and writes a PCAP header sized for
// snaplen, capping the capture at maxFrames frames.
func NewSink(path string, snaplen int, maxFrames int) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("capture: create %q: %w", path, err)
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(uint32(snaplen), layers.LinkTypeEthernet); err != nil {
		f.Close()
		return nil, fmt.Errorf("capture: write pcap header: %w", err)
	}
	return &Sink{
		file:      f,
		writer:    w,
		maxFrames: maxFrames,
		sessionID: xid.New(),
	}, nil
}

// SessionID returns this capture session's correlation id.
func (s *Sink) SessionID() string { return s.sessionID.String() }

// Write implements api.CaptureSink: appends raw as one PCAP record until
// maxFrames is reached, after which writes are silently dropped (spec §4.5
// "capped at the configured frame count").
func (s *Sink) Write(raw []byte, record api.FeatureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.written >= s.maxFrames {
		return nil
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     time.Unix(0, int64(record.TimestampNs)),
		CaptureLength: len(raw),
		Length:        len(raw),
	}
	if err := s.writer.WritePacket(ci, raw); err != nil {
		return fmt.Errorf("capture: write packet: %w", err)
	}
	s.written++
	return nil
}

// Close implements api.CaptureSink.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

var _ api.CaptureSink = (*Sink)(nil)
