// File: classify/classify.go
// Package classify implements the in-kernel-equivalent fast path: per-frame
// parse, counter update, sampling, classification and verdict (spec §4.2).
// Author: momentics <momentics@gmail.com>
//
// Classify must never allocate and must never block: it is invoked once per
// received frame by an xdp.Source read loop (the AF_PACKET reader on Linux,
// or the libpcap copy-based reader); the XDP program loaded by
// classify/attach_linux.go only passes frames through. All failure modes are non-fatal and reported through Counters only
// — the default verdict on any parse error is PASS, never DROP, so a
// misbehaving classifier never interferes with real traffic (spec §4.2,
// "do not interfere").

package classify

import (
	"sync/atomic"
	"time"

	"github.com/momentics/packetengine/api"
	"github.com/momentics/packetengine/core/protocol"
)

// Counters receives statistics increments from the classifier's hot path.
// Implementations must be lock-free and safe for concurrent use from every
// CPU (spec §4.1 stats_add contract).
type Counters interface {
	Add(idx api.StatIndex, delta uint64)
}

// Steerer hands a classified frame to the zero-copy transport's RX ring for
// the given queue. Enqueue returns false on ring-full, which the classifier
// folds into dropped_packets without ever returning DROP for that reason
// (spec §4.3 "Overflow policy").
type Steerer interface {
	Enqueue(queueID uint32, frame api.Frame) bool
}

// ConfigSource returns the current configuration snapshot (spec §4.1
// config_load: one consistent snapshot read per packet).
type ConfigSource func() api.Config

// numStripes is the number of independent per-"CPU" sampling counters. Go
// has no true per-CPU execution context outside the kernel; striping by a
// fast pseudo-CPU id (spec §9 open question: "mandates per-CPU counters to
// fix the race") avoids the shared, non-atomic counter race the original
// sources exhibited without requiring a real per-CPU primitive.
const numStripes = 64

// Classifier implements the classify(frame) -> verdict contract of spec
// §4.2. It is safe to share across goroutines/cores: all mutable state is
// atomic or otherwise wait-free.
type Classifier struct {
	stats   Counters
	steer   Steerer
	cfg     ConfigSource
	policy  atomic.Pointer[api.ClassifierPolicy]
	samples [numStripes]struct {
		n   atomic.Uint64
		_   [56]byte // pad to a cache line to avoid false sharing across stripes
	}
}

// New constructs a Classifier reading configuration from cfg, reporting
// counters into stats, and steering accepted frames via steer.
func New(stats Counters, steer Steerer, cfg ConfigSource) *Classifier {
	c := &Classifier{stats: stats, steer: steer, cfg: cfg}
	defaultPolicy := api.ClassifierPolicy(protocol.ClassifyTag)
	c.policy.Store(&defaultPolicy)
	return c
}

// SetPolicy replaces the traffic-classification policy (spec §4.5
// set_classifier), effective for the next packet classified on any stripe.
func (c *Classifier) SetPolicy(policy api.ClassifierPolicy) {
	if policy == nil {
		return
	}
	c.policy.Store(&policy)
}

// stripeFor picks a pseudo-CPU stripe for a frame. Sampling
// tie-breaks are per-stripe local (spec §4.2 step 6: "no cross-CPU
// serialization"), so any stable-enough distribution is correct; we use the
// frame's own flow hash low bits, which spreads flows across stripes without
// needing runtime CPU-id introspection.
func stripeFor(flowHash uint64) int {
	return int(flowHash % numStripes)
}

// Classify runs the full fast-path algorithm of spec §4.2 steps 1-9 over a
// single received frame and returns the verdict. The time spent inside
// Classify is added to classifier_cpu_ns.
func (c *Classifier) Classify(frame api.Frame) api.Verdict {
	start := time.Now()
	data := frame.Bytes()

	verdict := c.classify(frame, data)

	c.stats.Add(api.StatClassifierCPUNs, uint64(time.Since(start).Nanoseconds()))
	return verdict
}

func (c *Classifier) classify(frame api.Frame, data []byte) api.Verdict {
	// Step 1: bounds-check Ethernet header; non-IPv4 or truncated -> PASS.
	eth, ok := parseEthernet(data)
	if !ok || eth.etherType != protocol.EtherTypeIPv4 {
		c.stats.Add(api.StatTotalPackets, 1)
		return api.VerdictPass
	}
	c.stats.Add(api.StatTotalPackets, 1)
	c.stats.Add(api.StatTotalBytes, uint64(len(data)))

	// Step 2: bounds-check IPv4 header; malformed -> dropped_packets++, PASS.
	ipv4, ok := parseIPv4(data[protocol.EtherHeaderLen:])
	if !ok {
		c.stats.Add(api.StatDroppedPackets, 1)
		return api.VerdictPass
	}

	cfg := c.cfg()

	// Step 3: protocol-specific counters, then protocol filter.
	switch ipv4.protocol {
	case api.ProtoTCP:
		c.stats.Add(api.StatTCPPackets, 1)
	case api.ProtoUDP:
		c.stats.Add(api.StatUDPPackets, 1)
	default:
		c.stats.Add(api.StatOtherPackets, 1)
	}
	if !cfg.ProtocolFilterMask.Allows(ipv4.protocol) {
		return api.VerdictPass
	}
	c.stats.Add(api.StatFilteredPackets, 1)

	// Step 4: bounds-check L4 header; unsupported protocols get ports=0.
	l4Off := protocol.EtherHeaderLen + int(ipv4.ihl)*4
	var srcPort, dstPort uint16
	switch ipv4.protocol {
	case api.ProtoTCP:
		tcp, ok := parseTCP(data[l4Off:])
		if !ok {
			c.stats.Add(api.StatDroppedPackets, 1)
			return api.VerdictPass
		}
		srcPort, dstPort = tcp.srcPort, tcp.dstPort
	case api.ProtoUDP:
		udp, ok := parseUDP(data[l4Off:])
		if !ok {
			c.stats.Add(api.StatDroppedPackets, 1)
			return api.VerdictPass
		}
		srcPort, dstPort = udp.srcPort, udp.dstPort
	}

	// Step 5: classification tag (computed for completeness; the steered
	// frame is re-parsed by the drainer which attaches it to the record).
	policyPtr := c.policy.Load()
	_ = (*policyPtr)(ipv4.protocol, srcPort, dstPort)

	// Step 6: sampling decision, per-stripe monotonic counter.
	stride := cfg.SamplingStride
	if stride < 1 {
		stride = 1
	}
	flowHash := protocol.FlowHash(ipv4.protocol, ipv4.srcIP, ipv4.dstIP, srcPort, dstPort)
	stripe := &c.samples[stripeFor(flowHash)].n
	count := stripe.Add(1)
	if count%uint64(stride) != 0 {
		// Step 7: not sampled -> PASS.
		return api.VerdictPass
	}
	c.stats.Add(api.StatSampledPackets, 1)

	// Step 8: attempt to enqueue to the ring for config.steer_queue_id.
	if c.steer == nil || !c.steer.Enqueue(cfg.SteerQueueID, frame) {
		c.stats.Add(api.StatDroppedPackets, 1)
		return api.VerdictPass
	}
	c.stats.Add(api.StatSteeredPackets, 1)
	return api.VerdictSteer
}
