// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations: the FeatureRecord, Config, Statistics
// and verdict/classification enums that cross the classifier/drainer/control
// boundary.

package api

// Verdict is the classifier's per-packet decision (spec §2, §4.2).
type Verdict int

const (
	VerdictPass Verdict = iota
	VerdictDrop
	VerdictSteer
)

func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "pass"
	case VerdictDrop:
		return "drop"
	case VerdictSteer:
		return "steer"
	default:
		return "unknown"
	}
}

// TrafficClass is the coarse tag the classifier attaches to a packet (spec §3).
type TrafficClass uint8

const (
	TrafficNormal TrafficClass = iota
	TrafficSuspicious
	TrafficPriority
)

func (c TrafficClass) String() string {
	switch c {
	case TrafficSuspicious:
		return "suspicious"
	case TrafficPriority:
		return "priority"
	default:
		return "normal"
	}
}

// Direction is the flow direction relative to the local host (spec §3).
type Direction uint8

const (
	DirectionInbound Direction = iota
	DirectionOutbound
)

func (d Direction) String() string {
	if d == DirectionOutbound {
		return "outbound"
	}
	return "inbound"
}

// Protocol numbers recognized by the classifier (IANA assigned).
const (
	ProtoICMP = 1
	ProtoTCP  = 6
	ProtoUDP  = 17
)

// FeatureRecord is the fixed-shape artifact delivered to the analysis
// callback (spec §3). All integer fields are host byte order; the
// classifier/drainer convert from network order at the parse boundary.
//
// FeatureRecord is constructed on the drainer's stack and is only valid for
// the duration of the callback invocation that receives it; implementations
// must not retain a pointer to it past callback return.
type FeatureRecord struct {
	SrcIP             uint32
	DstIP             uint32
	SrcPort           uint16
	DstPort           uint16
	Protocol          uint8
	PktLen            uint16
	PayloadLen        uint16
	TCPFlags          uint8
	WindowSize        uint16
	TTL               uint8
	FlowHash          uint64
	TimestampNs       uint64
	PacketEntropy     uint8
	InterArrivalUs    uint32
	TrafficClass      TrafficClass
	Direction         Direction
}

// Config is the single configuration slot read by the classifier on every
// packet (spec §3). Writers install a new value atomically; the classifier
// reads one consistent snapshot per packet (control.ConfigStore).
type Config struct {
	SamplingStride     uint32
	MaxUserRate        uint64
	ProtocolFilterMask ProtocolMask
	SteerQueueID       uint32

	BatchSize    int
	RingCapacity uint32
	FrameSize    int
	PoolFrames   int

	Interface     string
	QueueIDs      []int
	ZeroCopyMode  bool

	FlowTableEntries int
	FlowTableTimeout int64 // nanoseconds
}

// ProtocolMask is a bitset over {TCP, UDP, ICMP, OTHER} (spec §3/§4.5).
type ProtocolMask uint8

const (
	ProtoMaskTCP ProtocolMask = 1 << iota
	ProtoMaskUDP
	ProtoMaskICMP
	ProtoMaskOther

	ProtoMaskAll = ProtoMaskTCP | ProtoMaskUDP | ProtoMaskICMP | ProtoMaskOther
)

// Allows reports whether protocol p (an IANA number, or 0 for "other") passes
// the mask.
func (m ProtocolMask) Allows(protocol uint8) bool {
	switch protocol {
	case ProtoTCP:
		return m&ProtoMaskTCP != 0
	case ProtoUDP:
		return m&ProtoMaskUDP != 0
	case ProtoICMP:
		return m&ProtoMaskICMP != 0
	default:
		return m&ProtoMaskOther != 0
	}
}

// DefaultConfig returns a baseline configuration matching spec defaults.
func DefaultConfig() Config {
	return Config{
		SamplingStride:     1,
		MaxUserRate:        0,
		ProtocolFilterMask: ProtoMaskAll,
		SteerQueueID:       0,
		BatchSize:          64,
		RingCapacity:       4096,
		FrameSize:          2048,
		PoolFrames:         4096,
		ZeroCopyMode:       true,
		FlowTableEntries:   0,
		FlowTableTimeout:   0,
	}
}

// StatIndex names a slot in the Statistics counter array (spec §3).
type StatIndex int

const (
	StatTotalPackets StatIndex = iota
	StatFilteredPackets
	StatSampledPackets
	StatSteeredPackets
	StatDroppedPackets
	StatTCPPackets
	StatUDPPackets
	StatOtherPackets
	StatTotalBytes
	StatClassifierCPUNs
	StatAnomalySignals

	statCount // sentinel, keep last
)

// StatCount is the number of counters in a Statistics snapshot.
const StatCount = int(statCount)

var statNames = [statCount]string{
	StatTotalPackets:    "total_packets",
	StatFilteredPackets: "filtered_packets",
	StatSampledPackets:  "sampled_packets",
	StatSteeredPackets:  "steered_packets",
	StatDroppedPackets:  "dropped_packets",
	StatTCPPackets:      "tcp_packets",
	StatUDPPackets:      "udp_packets",
	StatOtherPackets:    "other_packets",
	StatTotalBytes:      "total_bytes",
	StatClassifierCPUNs: "classifier_cpu_ns",
	StatAnomalySignals:  "anomaly_signals",
}

// Name returns the stable statistic name used in telemetry exports.
func (i StatIndex) Name() string {
	if i < 0 || int(i) >= len(statNames) {
		return "unknown"
	}
	return statNames[i]
}

// Statistics is a point-in-time snapshot of the counter array (spec §3).
// All counters are saturating/wrapping u64; consumers must tolerate wrap.
type Statistics struct {
	Values [StatCount]uint64
}

// Get returns the value at index i, or 0 if i is out of range.
func (s Statistics) Get(i StatIndex) uint64 {
	if i < 0 || int(i) >= len(s.Values) {
		return 0
	}
	return s.Values[i]
}
