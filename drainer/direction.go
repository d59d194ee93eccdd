// File: drainer/direction.go
// Author: momentics <momentics@gmail.com>
//
// Flow direction relative to the local host (spec §3 direction,
// api.DirectionPolicy). The default rule tags a flow Outbound when the
// source port is the higher of the two (client ephemeral ports outrank
// well-known server ports in the common case), Inbound otherwise; a richer
// policy can be installed on an Extractor via SetDirectionPolicy.
package drainer

import "github.com/momentics/packetengine/api"

// DefaultDirectionPolicy implements the spec's default direction rule:
// src_port > dst_port => OUTBOUND.
func DefaultDirectionPolicy(srcIP, dstIP uint32, srcPort, dstPort uint16) api.Direction {
	if srcPort > dstPort {
		return api.DirectionOutbound
	}
	return api.DirectionInbound
}

// LocalNetworkDirectionPolicy returns a DirectionPolicy that instead tags a
// flow Outbound when its source address is one of localIPs, falling back to
// Inbound for unknown sources. An enrichment over the port-based default
// for deployments that know their local address set.
func LocalNetworkDirectionPolicy(localIPs map[uint32]struct{}) api.DirectionPolicy {
	return func(srcIP, dstIP uint32, srcPort, dstPort uint16) api.Direction {
		if _, ok := localIPs[srcIP]; ok {
			return api.DirectionOutbound
		}
		return api.DirectionInbound
	}
}
