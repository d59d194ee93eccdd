// File: drainer/extract.go
// Author: momentics <momentics@gmail.com>
//
// Re-parses a steered frame into a FeatureRecord (spec §4.4 step 3a-3e)
// using github.com/google/gopacket + gopacket/layers for richer, allocating
// L2-L4 decoding than the classifier's hand-rolled fast path affords
// (grounded on the netcap retrieval example's gopacket-based reassembly).
package drainer

import (
	"net"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/momentics/packetengine/api"
	"github.com/momentics/packetengine/core/protocol"
)

// Extractor builds FeatureRecords from raw frame bytes. flows/policy/direction
// are held behind atomic pointers, the same double-buffered-swap discipline
// as control.ConfigStore, so the control surface can replace any of them
// while drainer goroutines are mid-flight without tearing a read.
type Extractor struct {
	flows     atomic.Pointer[FlowTable]
	policy    atomic.Pointer[api.ClassifierPolicy]
	direction atomic.Pointer[api.DirectionPolicy]
}

// NewExtractor builds an Extractor. flows may be nil to disable
// inter-arrival tracking; policy/direction default to
// core/protocol.ClassifyTag and DefaultDirectionPolicy when nil.
func NewExtractor(flows *FlowTable, policy api.ClassifierPolicy, direction api.DirectionPolicy) *Extractor {
	if policy == nil {
		policy = protocol.ClassifyTag
	}
	if direction == nil {
		direction = DefaultDirectionPolicy
	}
	e := &Extractor{}
	e.flows.Store(flows)
	e.policy.Store(&policy)
	e.direction.Store(&direction)
	return e
}

// SetFlowTable replaces the inter-arrival flow table in use, effective on the
// next Extract call. Passing nil disables inter-arrival tracking.
func (e *Extractor) SetFlowTable(flows *FlowTable) {
	e.flows.Store(flows)
}

// SetPolicy replaces the traffic-classification policy (spec §4.5
// set_classifier), keeping the drainer's re-tagging in step with the
// classifier's own policy swap.
func (e *Extractor) SetPolicy(policy api.ClassifierPolicy) {
	if policy == nil {
		return
	}
	e.policy.Store(&policy)
}

// FlowCount reports the number of flows currently tracked, or 0 when flow
// tracking is disabled. Exposed for debug probes (control.DebugProbes).
func (e *Extractor) FlowCount() int {
	flows := e.flows.Load()
	if flows == nil {
		return 0
	}
	return flows.Len()
}

// SetDirectionPolicy replaces the flow-direction heuristic.
func (e *Extractor) SetDirectionPolicy(direction api.DirectionPolicy) {
	if direction == nil {
		return
	}
	e.direction.Store(&direction)
}

// Extract decodes raw (an Ethernet frame) into a FeatureRecord at
// timestampNs. ok is false for frames that fail to decode at least an
// IPv4 layer; the caller must drop such frames rather than invoke the
// analysis callback with a zero-value record (spec §4.4 "never synthesize
// a record for an undecodable frame").
func (e *Extractor) Extract(raw []byte, timestampNs uint64) (api.FeatureRecord, bool) {
	packet := gopacket.NewPacket(raw, layers.LayerTypeEthernet, gopacket.NoCopy)

	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return api.FeatureRecord{}, false
	}
	ip4, ok := ipLayer.(*layers.IPv4)
	if !ok {
		return api.FeatureRecord{}, false
	}

	rec := api.FeatureRecord{
		SrcIP:       ipToUint32(ip4.SrcIP),
		DstIP:       ipToUint32(ip4.DstIP),
		Protocol:    uint8(ip4.Protocol),
		PktLen:      ip4.Length,
		TTL:         ip4.TTL,
		TimestampNs: timestampNs,
	}

	payload := ip4.Payload
	switch {
	case ip4.Protocol == layers.IPProtocolTCP:
		if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
			tcp := tcpLayer.(*layers.TCP)
			rec.SrcPort = uint16(tcp.SrcPort)
			rec.DstPort = uint16(tcp.DstPort)
			rec.TCPFlags = tcpFlagsOf(tcp)
			rec.WindowSize = tcp.Window
			payload = tcp.Payload
		}
	case ip4.Protocol == layers.IPProtocolUDP:
		if udpLayer := packet.Layer(layers.LayerTypeUDP); udpLayer != nil {
			udp := udpLayer.(*layers.UDP)
			rec.SrcPort = uint16(udp.SrcPort)
			rec.DstPort = uint16(udp.DstPort)
			payload = udp.Payload
		}
	}

	rec.PayloadLen = uint16(len(payload))
	rec.PacketEntropy = PacketEntropy(payload)
	rec.FlowHash = protocol.FlowHash(rec.Protocol, rec.SrcIP, rec.DstIP, rec.SrcPort, rec.DstPort)
	rec.TrafficClass = (*e.policy.Load())(rec.Protocol, rec.SrcPort, rec.DstPort)
	rec.Direction = (*e.direction.Load())(rec.SrcIP, rec.DstIP, rec.SrcPort, rec.DstPort)

	if flows := e.flows.Load(); flows != nil {
		rec.InterArrivalUs = flows.Observe(rec.FlowHash, timestampNs)
	}

	return rec, true
}

func ipToUint32(ip net.IP) uint32 {
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}

func tcpFlagsOf(tcp *layers.TCP) uint8 {
	var f uint8
	if tcp.FIN {
		f |= protocol.TCPFlagFIN
	}
	if tcp.SYN {
		f |= protocol.TCPFlagSYN
	}
	if tcp.RST {
		f |= protocol.TCPFlagRST
	}
	if tcp.PSH {
		f |= protocol.TCPFlagPSH
	}
	if tcp.ACK {
		f |= protocol.TCPFlagACK
	}
	if tcp.URG {
		f |= protocol.TCPFlagURG
	}
	if tcp.ECE {
		f |= protocol.TCPFlagECE
	}
	if tcp.CWR {
		f |= protocol.TCPFlagCWR
	}
	return f
}
