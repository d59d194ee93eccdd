// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Flow hashing and default traffic classification, shared by the classifier
// fast path and the drainer's feature extraction (spec §3, §4.2 step 5).

package protocol

import (
	"encoding/binary"

	"github.com/momentics/packetengine/api"
)

// FlowHash computes a stable 64-bit hash over the 5-tuple
// (protocol, srcIP, srcPort, dstIP, dstPort). Per the Open Question in
// spec §9, this implementation canonicalizes the endpoint pair before
// hashing (lower (ip,port) pair first) so FlowHash is symmetric under
// direction reversal: FlowHash(p) == FlowHash(reverse(p)).
func FlowHash(protocol uint8, srcIP, dstIP uint32, srcPort, dstPort uint16) uint64 {
	sIP, sPort, dIP, dPort := srcIP, srcPort, dstIP, dstPort
	if greaterEndpoint(srcIP, srcPort, dstIP, dstPort) {
		sIP, sPort, dIP, dPort = dstIP, dstPort, srcIP, srcPort
	}

	var buf [13]byte
	buf[0] = protocol
	binary.BigEndian.PutUint32(buf[1:5], sIP)
	binary.BigEndian.PutUint16(buf[5:7], sPort)
	binary.BigEndian.PutUint32(buf[7:11], dIP)
	binary.BigEndian.PutUint16(buf[11:13], dPort)

	return fnv1a64(buf[:])
}

// greaterEndpoint reports whether (ipA,portA) sorts after (ipB,portB), used
// to pick a direction-independent canonical ordering of the two endpoints.
func greaterEndpoint(ipA uint32, portA uint16, ipB uint32, portB uint16) bool {
	if ipA != ipB {
		return ipA > ipB
	}
	return portA > portB
}

// fnv1a64 is a small allocation-free FNV-1a implementation, safe to call
// from the classifier's no-allocation fast path.
func fnv1a64(data []byte) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211

	h := uint64(offset64)
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}

// ClassifyTag computes the default traffic-classification tag for a 5-tuple
// (spec §4.2 step 5): service ports {22,53,80,443} => PRIORITY; both
// endpoints ephemeral (or a non-TCP/UDP protocol) => SUSPICIOUS; else
// NORMAL. Embedding applications may override this via
// api.Control.SetClassifier.
func ClassifyTag(protocol uint8, srcPort, dstPort uint16) api.TrafficClass {
	if _, ok := PriorityPorts[srcPort]; ok {
		return api.TrafficPriority
	}
	if _, ok := PriorityPorts[dstPort]; ok {
		return api.TrafficPriority
	}

	nonTCPUDP := protocol != api.ProtoTCP && protocol != api.ProtoUDP
	bothEphemeral := srcPort > EphemeralPortThreshold && dstPort > EphemeralPortThreshold
	if nonTCPUDP || bothEphemeral {
		return api.TrafficSuspicious
	}
	return api.TrafficNormal
}
