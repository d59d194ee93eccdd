// File: api/control.go
// Package api
// Author: momentics <momentics@gmail.com>
//
// Control & Telemetry Surface contract (spec §4.5): the operations an
// embedding application uses to configure the engine and read statistics at
// runtime.

package api

// AnalysisCallback is the pluggable analysis callback invoked by the drainer
// for every steered, sampled record (spec §4.4 step 3e). Implementations
// must be synchronous, reentrant across drainer goroutines (one per queue),
// and must not retain record past return. The returned int is opaque to the
// engine; the drainer folds it into the anomaly_signals counter but never
// interprets it.
type AnalysisCallback func(record *FeatureRecord, userContext any) int

// ClassifierPolicy computes a TrafficClass tag from a parsed 5-tuple,
// replacing the default rule of spec §4.2 step 5 (set_classifier).
type ClassifierPolicy func(protocol uint8, srcPort, dstPort uint16) TrafficClass

// DirectionPolicy computes flow Direction from a parsed 5-tuple (spec §4.4
// step 3d default: src_port > dst_port => OUTBOUND).
type DirectionPolicy func(srcIP, dstIP uint32, srcPort, dstPort uint16) Direction

// CaptureSink receives a tee'd copy of the raw frame bytes and the derived
// FeatureRecord for the optional capture path (spec §4.5 enable_capture).
type CaptureSink interface {
	Write(raw []byte, record FeatureRecord) error
	Close() error
}

// Control is the embedding application's handle onto a running engine
// instance (spec §4.5, §6).
type Control interface {
	// Start begins classifier attach and drainer goroutines.
	Start() error

	// Stop blocks until all drainer goroutines have observed the stop
	// signal and returned (spec §5).
	Stop() error

	// Destroy releases all resources (rings, frame pool, attach handles).
	// The Control instance is unusable afterward.
	Destroy() error

	// GetStats returns a Statistics snapshot (eventually consistent).
	GetStats() Statistics

	// UpdateConfig atomically installs a new Config snapshot; effective on
	// the classifier's next packet.
	UpdateConfig(cfg Config) error

	// SetClassifier replaces the traffic-classification policy.
	SetClassifier(policy ClassifierPolicy) error

	// EnableCapture activates a teed raw-frame + record capture sink, capped
	// at maxFrames.
	EnableCapture(sink CaptureSink, maxFrames int) error

	// EnableFlowTracking activates per-queue flow tables of bounded size n
	// with the given entry timeout, used to compute inter_arrival_time.
	EnableFlowTracking(n int, timeout int64) error
}
